// Package fitter runs the logistic fit across every plant in a store and
// aggregates the fitted parameters into a ParameterTable.
//
// Partial-failure semantics are the point of this package: one plant with
// broken data never aborts the batch. Each plant either contributes one
// parameter record or one failure entry with its reason, and a completed run
// always reports both, so partial success is never silent.
//
//	f := fitter.New(fitter.WithWorkers(4))
//	table, failures, err := f.FitAll(store)
//	if err != nil {
//	    // structural problem with the store itself, not a per-plant fit
//	}
//	for _, fail := range failures {
//	    log.Printf("excluded %s: %v", fail.PlantID, fail.Err)
//	}
package fitter
