// Package logistic fits the three-parameter logistic growth curve
//
//	y = Asym / (1 + exp((Xmid - x) / Scal))
//
// to (day, size) samples of a single plant by nonlinear least squares.
//
// # Key Features
//
//   - Self-starting: initial parameter guesses are derived from the data
//     shape (logit regression, with half-max and range heuristics as
//     fallback); callers never hand-tune starting values per plant.
//   - Deterministic: Levenberg-Marquardt with an analytic Jacobian, a bounded
//     iteration budget and no randomized restarts, so identical input yields
//     identical output.
//   - Named inference: standard errors and Wald confidence intervals are
//     returned as named per-parameter fields computed from the asymptotic
//     covariance of the fit, never by positional index.
//
// # Usage
//
//	res, err := logistic.Fit(days, sizes)
//	if err != nil {
//	    var deg *logistic.DegenerateDataError
//	    if errors.As(err, &deg) {
//	        // too few points or no informative signal; exclude this plant
//	    }
//	}
//	fmt.Printf("asymptote %.1f reached half-way at day %.1f\n", res.Asym, res.Xmid)
//
// # Failure Modes
//
//   - DegenerateDataError: fewer than 4 valid samples, or zero variance in y.
//   - ConvergenceError: the optimizer exhausted its iteration budget.
//   - ImplausibleFitError: the optimizer converged, but to a shape that is
//     not bounded growth (non-positive asymptote or rate scale), e.g. on a
//     series that lost area over time. Flagged explicitly so callers never
//     mistake it for a normal logistic fit.
package logistic
