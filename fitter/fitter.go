package fitter

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rlbaker5/McNair2023/internal/options"
	"github.com/rlbaker5/McNair2023/logistic"
	"github.com/rlbaker5/McNair2023/series"
)

// Failure records one excluded plant and why its fit did not produce
// parameters.
type Failure struct {
	PlantID string
	Group   series.Group
	Reason  string
	Err     error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (%s): %s", f.PlantID, f.Group, f.Reason)
}

type config struct {
	workers int
	logger  *logrus.Entry
	fitOpts []logistic.Option
}

// Option is a functional option for New.
type Option = options.Option[*config]

// WithWorkers sets the number of concurrent fit workers (default 1, i.e.
// synchronous). Per-plant fits share no mutable state, so workers own
// private result slices that are merged after all workers complete; the
// final row set is deterministic regardless of scheduling.
func WithWorkers(n int) Option {
	return options.New(func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("worker count must be positive, got %d", n)
		}
		cfg.workers = n

		return nil
	})
}

// WithLogger attaches a contextual logger; every exclusion is logged through
// it as the run proceeds. Without a logger the fitter stays silent and the
// caller reports failures from the returned slice.
func WithLogger(logger *logrus.Entry) Option {
	return options.NoError(func(cfg *config) {
		cfg.logger = logger
	})
}

// WithFitOptions forwards options to every per-plant logistic.Fit call
// (iteration budget, tolerance).
func WithFitOptions(opts ...logistic.Option) Option {
	return options.NoError(func(cfg *config) {
		cfg.fitOpts = opts
	})
}

// Fitter fits the logistic model to every plant of a store.
type Fitter struct {
	cfg config
}

// New creates a Fitter.
func New(opts ...Option) (*Fitter, error) {
	cfg := config{workers: 1}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Fitter{cfg: cfg}, nil
}

// FitAll fits every plant in the store and returns the parameter table plus
// the failure list.
//
// Per-plant problems (degenerate data, non-convergence, implausible shape)
// are downgraded to Failure entries and the batch continues: a run over N
// plants with M failures yields N-M records and M failures. Observations
// with missing sizes are dropped before fitting; a plant with fewer than
// logistic.MinPoints valid observations is excluded without invoking the
// optimizer. No retries are performed; these failures are data-shape, not
// transient.
func (f *Fitter) FitAll(store *series.Store) (*Table, []Failure, error) {
	if store == nil || store.Len() == 0 {
		return nil, nil, errors.New("no plants in store")
	}

	all := store.All()

	type partial struct {
		records  []Record
		failures []Failure
	}

	workers := f.cfg.workers
	if workers > len(all) {
		workers = len(all)
	}

	parts := make([]partial, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * len(all) / workers
		hi := (w + 1) * len(all) / workers

		wg.Add(1)
		go func(part *partial, chunk []*series.IndividualSeries) {
			defer wg.Done()
			for _, s := range chunk {
				rec, fail := f.fitOne(s)
				if fail != nil {
					part.failures = append(part.failures, *fail)
					continue
				}
				part.records = append(part.records, rec)
			}
		}(&parts[w], all[lo:hi])
	}
	wg.Wait()

	// Merge after completion: chunks follow sorted plant order, so the
	// final table and failure list are deterministic.
	table := &Table{}
	var failures []Failure
	for _, p := range parts {
		for _, r := range p.records {
			table.Add(r)
		}
		failures = append(failures, p.failures...)
	}

	if f.cfg.logger != nil {
		for _, fail := range failures {
			f.cfg.logger.WithFields(logrus.Fields{
				"plant":  fail.PlantID,
				"group":  fail.Group,
				"reason": fail.Reason,
			}).Warn("plant excluded from parameter table")
		}
		f.cfg.logger.WithFields(logrus.Fields{
			"plants":   len(all),
			"fitted":   table.Len(),
			"excluded": len(failures),
		}).Info("curve fitting completed")
	}

	return table, failures, nil
}

// fitOne fits a single series, returning either a record or a failure.
func (f *Fitter) fitOne(s *series.IndividualSeries) (Record, *Failure) {
	days, sizes := s.Points()

	if len(days) < logistic.MinPoints {
		err := &logistic.DegenerateDataError{
			Reason: fmt.Sprintf("%d valid points, need at least %d", len(days), logistic.MinPoints),
		}

		return Record{}, &Failure{
			PlantID: s.PlantID(),
			Group:   s.Group(),
			Reason:  failureReason(err),
			Err:     err,
		}
	}

	res, err := logistic.Fit(days, sizes, f.cfg.fitOpts...)
	if err != nil {
		return Record{}, &Failure{
			PlantID: s.PlantID(),
			Group:   s.Group(),
			Reason:  failureReason(err),
			Err:     err,
		}
	}

	return Record{
		PlantID: s.PlantID(),
		Group:   s.Group(),
		Asym:    res.Asym,
		Xmid:    res.Xmid,
		Scal:    res.Scal,
		Fit:     res,
	}, nil
}

// failureReason maps a fit error to its short human-readable category.
func failureReason(err error) string {
	var (
		deg  *logistic.DegenerateDataError
		conv *logistic.ConvergenceError
		impl *logistic.ImplausibleFitError
	)
	switch {
	case errors.As(err, &deg):
		return "degenerate data: " + deg.Reason
	case errors.As(err, &conv):
		return fmt.Sprintf("no convergence within %d iterations", conv.Iterations)
	case errors.As(err, &impl):
		return "implausible fit: " + impl.Reason
	default:
		return err.Error()
	}
}

// Report formats the failure list as a human-readable exclusion report for
// operator review. It returns an empty string when nothing failed.
func Report(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d plant(s) excluded from the parameter table:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(&b, "  - %s\n", f)
	}

	return b.String()
}
