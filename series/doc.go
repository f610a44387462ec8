// Package series holds the per-plant measurement time series consumed by the
// curve-fitting pipeline.
//
// The package is a pure data layer: it groups raw observations by plant
// identifier into day-ordered IndividualSeries, attaches exactly one genotype
// group label per plant, and validates structural integrity at build time.
// Missing size measurements are carried as NaN and excluded from fitting by
// the callers; they are never imputed.
//
// A Store is built once per analysis run and is read-only afterwards:
//
//	obs := []series.Observation{
//	    {PlantID: "L58-07", Group: "L58", Day: 5, Size: 120.0},
//	    {PlantID: "L58-07", Group: "L58", Day: 10, Size: 2050.0},
//	}
//	store, err := series.Build(obs)
//	if err != nil {
//	    // series.SchemaError: upstream data corruption, abort the run
//	}
package series
