// Package mcnair analyzes plant-phenotyping time series: it fits a
// three-parameter logistic growth curve to each plant's TopPlantSurface
// measurements and aggregates the fitted parameters for a two-genotype
// comparison.
//
// This package provides convenient top-level wrappers around the pipeline
// packages, simplifying the common batch run. For fine-grained control use
// the series, logistic, fitter, anova, plot and snapshot packages directly.
//
// # Basic Usage
//
//	table, failures, err := mcnair.FitCSV("phenotyping.csv", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(fitter.Report(failures))
//
//	cmp, err := anova.Compare(table)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range cmp.Tests() {
//	    fmt.Println(t)
//	}
package mcnair

import (
	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/ingest"
	"github.com/rlbaker5/McNair2023/series"
)

// FitObservations groups raw observations into per-plant series and fits
// every plant. Structural errors (series.SchemaError) abort; per-plant fit
// failures are returned in the failure list.
func FitObservations(obs []series.Observation, opts ...fitter.Option) (*fitter.Table, []fitter.Failure, error) {
	store, err := series.Build(obs)
	if err != nil {
		return nil, nil, err
	}

	return FitStore(store, opts...)
}

// FitStore fits every plant of an already-built store.
func FitStore(store *series.Store, opts ...fitter.Option) (*fitter.Table, []fitter.Failure, error) {
	f, err := fitter.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	return f.FitAll(store)
}

// FitCSV reads a collaborator phenotyping CSV (csvOpts nil for the default
// columns) and fits every plant in it.
func FitCSV(path string, csvOpts *ingest.CSVOptions, opts ...fitter.Option) (*fitter.Table, []fitter.Failure, error) {
	obs, err := ingest.ReadObservationsFile(path, csvOpts)
	if err != nil {
		return nil, nil, err
	}

	return FitObservations(obs, opts...)
}
