package logistic

import (
	"fmt"
	"math"

	"github.com/rlbaker5/McNair2023/internal/options"
	"github.com/rlbaker5/McNair2023/internal/stat"
)

// MinPoints is the minimum number of valid samples a fit requires: one more
// point than free parameters.
const MinPoints = 4

const (
	defaultMaxIterations = 50
	defaultTolerance     = 1e-10

	initialDamping = 1e-3
	minDamping     = 1e-12
	maxDamping     = 1e12
)

type fitConfig struct {
	maxIter int
	tol     float64
	start   *Curve
}

// Option is a functional option for Fit.
type Option = options.Option[*fitConfig]

// WithMaxIterations bounds the optimizer iteration budget (default 50).
func WithMaxIterations(n int) Option {
	return options.New(func(cfg *fitConfig) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		cfg.maxIter = n

		return nil
	})
}

// WithTolerance sets the relative residual-sum-of-squares improvement below
// which the fit is declared converged (default 1e-10).
func WithTolerance(tol float64) Option {
	return options.New(func(cfg *fitConfig) error {
		if tol <= 0 {
			return fmt.Errorf("tolerance must be positive, got %g", tol)
		}
		cfg.tol = tol

		return nil
	})
}

// WithStart overrides the self-derived starting parameters. Normal pipeline
// use never needs this; it exists for diagnostics and tests.
func WithStart(c Curve) Option {
	return options.NoError(func(cfg *fitConfig) {
		start := c
		cfg.start = &start
	})
}

// Interval is a two-sided confidence interval for one parameter.
type Interval struct {
	Lower float64
	Upper float64
}

// ConfInt carries per-parameter confidence intervals, bound by name so
// callers never depend on an optimizer output order.
type ConfInt struct {
	Level float64
	Asym  Interval
	Xmid  Interval
	Scal  Interval
}

// Result is a successful logistic fit: the estimated curve plus the
// inference quantities derived from the asymptotic covariance.
type Result struct {
	Curve

	// Standard errors of the three estimates. NaN when the information
	// matrix at the solution is singular.
	AsymSE float64
	XmidSE float64
	ScalSE float64

	// RSS is the residual sum of squares at the solution.
	RSS float64
	// DOF is the residual degrees of freedom (valid points minus 3).
	DOF int
	// Iterations is the number of optimizer iterations spent.
	Iterations int
	// Start records the self-derived (or overridden) initial parameters.
	Start Curve
}

// ConfInt returns Wald confidence intervals at the given level (e.g. 0.95)
// using Student-t critical values on the residual degrees of freedom.
func (r *Result) ConfInt(level float64) (ConfInt, error) {
	if level <= 0 || level >= 1 {
		return ConfInt{}, fmt.Errorf("confidence level must be in (0, 1), got %g", level)
	}
	if math.IsNaN(r.AsymSE) || math.IsNaN(r.XmidSE) || math.IsNaN(r.ScalSE) {
		return ConfInt{}, fmt.Errorf("confidence intervals unavailable: singular covariance")
	}

	t := stat.TQuantile(1-(1-level)/2, r.DOF)

	return ConfInt{
		Level: level,
		Asym:  Interval{Lower: r.Asym - t*r.AsymSE, Upper: r.Asym + t*r.AsymSE},
		Xmid:  Interval{Lower: r.Xmid - t*r.XmidSE, Upper: r.Xmid + t*r.XmidSE},
		Scal:  Interval{Lower: r.Scal - t*r.ScalSE, Upper: r.Scal + t*r.ScalSE},
	}, nil
}

// Fit estimates the logistic parameters from paired (day, size) samples by
// Levenberg-Marquardt nonlinear least squares.
//
// Requirements on input: len(xs) == len(ys), days non-decreasing, sizes
// non-negative with missing values already removed. Fewer than MinPoints
// samples or a zero-variance response fail with DegenerateDataError; an
// exhausted iteration budget fails with ConvergenceError; a converged fit
// with a non-positive asymptote or rate scale fails with
// ImplausibleFitError. The optimization is deterministic for identical
// input and options.
func Fit(xs, ys []float64, opts ...Option) (*Result, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("mismatched sample lengths: %d days vs %d sizes", len(xs), len(ys))
	}
	n := len(xs)
	if n < MinPoints {
		return nil, &DegenerateDataError{
			Reason: fmt.Sprintf("%d valid points, need at least %d", n, MinPoints),
		}
	}
	if constantValues(ys) {
		return nil, &DegenerateDataError{Reason: "zero variance in size measurements"}
	}

	cfg := fitConfig{maxIter: defaultMaxIterations, tol: defaultTolerance}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	start := SelfStart(xs, ys)
	if cfg.start != nil {
		start = *cfg.start
	}

	cur := start
	rss := residualSS(cur, xs, ys)
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return nil, &DegenerateDataError{Reason: "starting values produce non-finite residuals"}
	}

	damping := initialDamping
	converged := rss == 0
	iters := 0

	for iters < cfg.maxIter && !converged {
		iters++
		jtj, jtr := normalEquations(cur, xs, ys)

		accepted := false
		for !accepted {
			delta, ok := solveDamped(jtj, jtr, damping)
			if ok {
				trial := Curve{
					Asym: cur.Asym + delta[0],
					Xmid: cur.Xmid + delta[1],
					Scal: cur.Scal + delta[2],
				}
				trialRSS := math.NaN()
				if trial.Scal != 0 {
					trialRSS = residualSS(trial, xs, ys)
				}
				if !math.IsNaN(trialRSS) && trialRSS <= rss {
					rel := rss - trialRSS
					if rss > 0 {
						rel /= rss
					}
					cur = trial
					rss = trialRSS
					accepted = true
					if damping > minDamping {
						damping *= 0.1
					}
					if rel < cfg.tol || rss == 0 {
						converged = true
					}

					continue
				}
			}

			// Step rejected (or system too singular to solve): increase
			// damping and retry with the same linearization.
			damping *= 10
			if damping > maxDamping {
				return nil, &ConvergenceError{Iterations: iters, RSS: rss}
			}
		}
	}

	if !converged {
		return nil, &ConvergenceError{Iterations: iters, RSS: rss}
	}

	if cur.Asym <= 0 {
		return nil, &ImplausibleFitError{Curve: cur, Reason: "non-positive asymptote"}
	}
	if cur.Scal <= 0 {
		return nil, &ImplausibleFitError{Curve: cur, Reason: "non-positive rate scale"}
	}

	res := &Result{
		Curve:      cur,
		RSS:        rss,
		DOF:        n - 3,
		Iterations: iters,
		Start:      start,
	}
	res.AsymSE, res.XmidSE, res.ScalSE = standardErrors(cur, xs, ys, rss, res.DOF)

	return res, nil
}

// constantValues reports whether every value equals the first.
func constantValues(ys []float64) bool {
	for _, y := range ys[1:] {
		if y != ys[0] {
			return false
		}
	}

	return true
}

// residualSS computes the sum of squared residuals of the curve on the data.
func residualSS(c Curve, xs, ys []float64) float64 {
	rss := 0.0
	for i := range xs {
		r := ys[i] - c.Value(xs[i])
		rss += r * r
	}

	return rss
}

// normalEquations builds the Gauss-Newton normal equations at c: the
// symmetric 3x3 matrix JtJ and the right-hand side Jt*r for the current
// residuals r.
func normalEquations(c Curve, xs, ys []float64) (jtj [3][3]float64, jtr [3]float64) {
	for i := range xs {
		ga, gx, gs := c.gradient(xs[i])
		g := [3]float64{ga, gx, gs}
		r := ys[i] - c.Value(xs[i])

		for a := 0; a < 3; a++ {
			jtr[a] += g[a] * r
			for b := 0; b < 3; b++ {
				jtj[a][b] += g[a] * g[b]
			}
		}
	}

	return jtj, jtr
}

// solveDamped solves (JtJ + damping*diag(JtJ)) delta = Jtr by Cramer's rule.
// The second return value is false when the damped system is numerically
// singular.
func solveDamped(jtj [3][3]float64, jtr [3]float64, damping float64) ([3]float64, bool) {
	a := jtj
	for i := 0; i < 3; i++ {
		a[i][i] *= 1 + damping
	}

	det := det3(a)
	if math.Abs(det) < 1e-300 {
		return [3]float64{}, false
	}

	var delta [3]float64
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = jtr[row]
		}
		delta[col] = det3(m) / det
	}

	return delta, true
}

// det3 computes the determinant of a 3x3 matrix.
func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// standardErrors derives per-parameter standard errors from the asymptotic
// covariance sigma^2 * inv(JtJ) at the solution. All three are NaN when JtJ
// is singular or the degrees of freedom are exhausted.
func standardErrors(c Curve, xs, ys []float64, rss float64, dof int) (seAsym, seXmid, seScal float64) {
	nan := math.NaN()
	if dof <= 0 {
		return nan, nan, nan
	}

	jtj, _ := normalEquations(c, xs, ys)
	det := det3(jtj)
	if math.Abs(det) < 1e-300 {
		return nan, nan, nan
	}

	// Diagonal of the inverse via cofactors.
	inv00 := (jtj[1][1]*jtj[2][2] - jtj[1][2]*jtj[2][1]) / det
	inv11 := (jtj[0][0]*jtj[2][2] - jtj[0][2]*jtj[2][0]) / det
	inv22 := (jtj[0][0]*jtj[1][1] - jtj[0][1]*jtj[1][0]) / det

	sigma2 := rss / float64(dof)
	if inv00 < 0 || inv11 < 0 || inv22 < 0 {
		return nan, nan, nan
	}

	return math.Sqrt(sigma2 * inv00), math.Sqrt(sigma2 * inv11), math.Sqrt(sigma2 * inv22)
}
