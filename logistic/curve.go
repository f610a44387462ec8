package logistic

import (
	"fmt"
	"math"
)

// Curve holds the three parameters of the logistic growth model, using the
// conventional nonlinear-regression names:
//
//   - Asym: the asymptotic maximum size (upper plateau)
//   - Xmid: the inflection day, where the curve reaches Asym/2 and growth
//     rate is maximal
//   - Scal: the growth-rate scale in days; the intrinsic growth rate of the
//     sigmoid is 1/Scal
type Curve struct {
	Asym float64
	Xmid float64
	Scal float64
}

// Value evaluates the curve at day x.
func (c Curve) Value(x float64) float64 {
	return c.Asym / (1 + safeExp((c.Xmid-x)/c.Scal))
}

// gradient returns the partial derivatives of Value(x) with respect to
// (Asym, Xmid, Scal).
func (c Curve) gradient(x float64) (dAsym, dXmid, dScal float64) {
	e := safeExp((c.Xmid - x) / c.Scal)
	den := (1 + e) * (1 + e)

	dAsym = 1 / (1 + e)
	dXmid = -c.Asym * e / (den * c.Scal)
	dScal = c.Asym * e * (c.Xmid - x) / (den * c.Scal * c.Scal)

	return dAsym, dXmid, dScal
}

// Sample evaluates the curve at n evenly spaced days across [from, to].
// It is the overlay surface handed to the plotting layer: x spans the
// observed day range and y is the fitted size.
func (c Curve) Sample(from, to float64, n int) (xs, ys []float64) {
	if n < 2 || to < from {
		return nil, nil
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := 0; i < n; i++ {
		x := from + float64(i)*step
		xs[i] = x
		ys[i] = c.Value(x)
	}

	return xs, ys
}

func (c Curve) String() string {
	return fmt.Sprintf("Curve{Asym: %.4g, Xmid: %.4g, Scal: %.4g}", c.Asym, c.Xmid, c.Scal)
}

// safeExp is math.Exp with the argument clamped to the representable range,
// so extreme starting values saturate instead of producing Inf*0 NaNs.
func safeExp(v float64) float64 {
	if v > 709 {
		v = 709
	} else if v < -709 {
		v = -709
	}

	return math.Exp(v)
}

// DegenerateDataError reports a series that cannot inform a logistic fit:
// too few valid samples or no variance in the response.
type DegenerateDataError struct {
	Reason string
}

func (e *DegenerateDataError) Error() string {
	return "degenerate data: " + e.Reason
}

// ConvergenceError reports that the optimizer exhausted its iteration budget
// without meeting the convergence tolerance.
type ConvergenceError struct {
	Iterations int
	RSS        float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("no convergence after %d iterations (rss %.6g)", e.Iterations, e.RSS)
}

// ImplausibleFitError reports a converged fit whose shape is not bounded
// growth. The offending parameters are carried for diagnostics.
type ImplausibleFitError struct {
	Curve  Curve
	Reason string
}

func (e *ImplausibleFitError) Error() string {
	return fmt.Sprintf("implausible fit (%s): %s", e.Reason, e.Curve)
}
