// Command growthfit runs the growth-curve analysis pipeline over a
// phenotyping CSV: per-plant logistic fits, a parameter table, a failure
// report, the two-genotype parameter comparison, and optional overlay plots
// and snapshots.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rlbaker5/McNair2023/anova"
	"github.com/rlbaker5/McNair2023/compress"
	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/ingest"
	"github.com/rlbaker5/McNair2023/logistic"
	"github.com/rlbaker5/McNair2023/plot"
	"github.com/rlbaker5/McNair2023/series"
	"github.com/rlbaker5/McNair2023/snapshot"
)

var log = logrus.New()

func main() {
	// A .env next to the binary may provide GROWTHFIT_* defaults; absence
	// is not an error.
	_ = godotenv.Load()
	configureLogging()

	root := &cobra.Command{
		Use:           "growthfit",
		Short:         "Logistic growth-curve analysis for plant phenotyping series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFitCmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func configureLogging() {
	level, err := logrus.ParseLevel(strings.ToLower(envOr("GROWTHFIT_LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if envOr("GROWTHFIT_LOG_FORMAT", "text") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

type fitFlags struct {
	input       string
	outDir      string
	workers     int
	maxIter     int
	confLevel   float64
	dateFormat  string
	renderPlots bool
	writeSnaps  bool
	codecName   string
}

func newFitCmd() *cobra.Command {
	var flags fitFlags

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the logistic growth model to every plant in a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "phenotyping observations CSV (required)")
	cmd.Flags().StringVarP(&flags.outDir, "out-dir", "o", "growthfit-out", "output directory")
	cmd.Flags().IntVar(&flags.workers, "workers", 1, "concurrent fit workers")
	cmd.Flags().IntVar(&flags.maxIter, "max-iterations", 50, "optimizer iteration budget per plant")
	cmd.Flags().Float64Var(&flags.confLevel, "conf-level", 0.95, "confidence level for parameter intervals")
	cmd.Flags().StringVar(&flags.dateFormat, "date-format", "2006-01-02", "date layout of the CSV date columns")
	cmd.Flags().BoolVar(&flags.renderPlots, "plots", false, "render per-plant overlay PNGs")
	cmd.Flags().BoolVar(&flags.writeSnaps, "snapshot", false, "write store and parameter snapshots")
	cmd.Flags().StringVar(&flags.codecName, "compression", "zstd", "snapshot compression (none, zstd, s2, lz4)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runFit(flags fitFlags) error {
	runID := uuid.New()
	runLog := log.WithField("run_id", runID)

	csvOpts := ingest.DefaultCSVOptions()
	csvOpts.DateFormat = flags.dateFormat

	obs, err := ingest.ReadObservationsFile(flags.input, csvOpts)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", flags.input, err)
	}
	store, err := series.Build(obs)
	if err != nil {
		return fmt.Errorf("build series store: %w", err)
	}
	runLog.WithFields(logrus.Fields{
		"observations": len(obs),
		"plants":       store.Len(),
		"groups":       store.Groups(),
	}).Info("observations loaded")

	f, err := fitter.New(
		fitter.WithWorkers(flags.workers),
		fitter.WithLogger(runLog),
		fitter.WithFitOptions(logistic.WithMaxIterations(flags.maxIter)),
	)
	if err != nil {
		return err
	}

	table, failures, err := f.FitAll(store)
	if err != nil {
		return fmt.Errorf("fit batch: %w", err)
	}

	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return err
	}
	if err := writeParameters(flags.outDir, table); err != nil {
		return err
	}
	if err := writeFailureReport(flags.outDir, failures); err != nil {
		return err
	}
	logIntervals(runLog, table, flags.confLevel)
	logComparison(runLog, table)

	if flags.renderPlots {
		if err := renderPlots(flags.outDir, store, table); err != nil {
			return err
		}
	}
	if flags.writeSnaps {
		if err := writeSnapshots(flags, runID, store, table); err != nil {
			return err
		}
	}

	runLog.WithFields(logrus.Fields{
		"fitted":   table.Len(),
		"excluded": len(failures),
		"out_dir":  flags.outDir,
	}).Info("run complete")

	return nil
}

func writeParameters(outDir string, table *fitter.Table) error {
	path := filepath.Join(outDir, "parameters.csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return ingest.WriteParameters(f, table)
}

// writeFailureReport persists the exclusion list; a run with failures must
// never look like a clean run.
func writeFailureReport(outDir string, failures []fitter.Failure) error {
	report := fitter.Report(failures)
	if report == "" {
		report = "no plants excluded\n"
	}

	return os.WriteFile(filepath.Join(outDir, "failures.txt"), []byte(report), 0o644)
}

func logIntervals(runLog *logrus.Entry, table *fitter.Table, level float64) {
	for _, rec := range table.Rows() {
		ci, err := rec.Fit.ConfInt(level)
		entry := runLog.WithFields(logrus.Fields{
			"plant": rec.PlantID,
			"group": rec.Group,
			"asym":  rec.Asym,
			"xmid":  rec.Xmid,
			"scal":  rec.Scal,
		})
		if err != nil {
			entry.WithError(err).Warn("fitted without confidence intervals")
			continue
		}
		entry.WithFields(logrus.Fields{
			"asym_ci": fmt.Sprintf("[%.4g, %.4g]", ci.Asym.Lower, ci.Asym.Upper),
			"xmid_ci": fmt.Sprintf("[%.4g, %.4g]", ci.Xmid.Lower, ci.Xmid.Upper),
			"scal_ci": fmt.Sprintf("[%.4g, %.4g]", ci.Scal.Lower, ci.Scal.Upper),
		}).Info("plant fitted")
	}
}

func logComparison(runLog *logrus.Entry, table *fitter.Table) {
	cmp, err := anova.Compare(table)
	if err != nil {
		runLog.WithError(err).Warn("skipping group comparison")
		return
	}
	for _, t := range cmp.Tests() {
		runLog.WithFields(logrus.Fields{
			"parameter": t.Parameter,
			"effect":    t.Effect,
			"f":         t.F,
			"p":         t.PValue,
		}).Info(t.String())
	}
}

func renderPlots(outDir string, store *series.Store, table *fitter.Table) error {
	plotDir := filepath.Join(outDir, "plots")
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return err
	}

	for _, rec := range table.Rows() {
		s := store.Series(rec.PlantID)
		f, err := os.Create(filepath.Join(plotDir, rec.PlantID+".png"))
		if err != nil {
			return err
		}
		err = plot.RenderPNG(f, s, rec.Fit)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func writeSnapshots(flags fitFlags, runID uuid.UUID, store *series.Store, table *fitter.Table) error {
	codec, err := compress.TypeFromString(flags.codecName)
	if err != nil {
		return err
	}
	opts := []snapshot.Option{snapshot.WithCompression(codec), snapshot.WithRunID(runID)}

	storeSnap, err := snapshot.EncodeStore(store, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(flags.outDir, "store.snap"), storeSnap, 0o644); err != nil {
		return err
	}

	tableSnap, err := snapshot.EncodeTable(table, opts...)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(flags.outDir, "parameters.snap"), tableSnap, 0o644)
}
