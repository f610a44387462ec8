package logistic

import "math"

// SelfStart derives initial parameter guesses from the data shape, so the
// nonlinear fit never needs hand-tuned starting values.
//
// The starting asymptote is max(y) scaled up by 5% to avoid a
// boundary-degenerate start. Xmid and Scal come from a linear regression of
// the logit transform z = ln(Asym/y - 1) on x, which is exact when the data
// lie on a logistic curve; when the transform is uninformative (fewer than
// two usable points, or a flat/positive slope on non-growing data), the
// fallback places Xmid at the half-maximum crossing and Scal at a quarter of
// the observed day range.
func SelfStart(xs, ys []float64) Curve {
	maxY := ys[0]
	for _, y := range ys {
		if y > maxY {
			maxY = y
		}
	}
	asym := 1.05 * maxY

	// Logit regression: z = Xmid/Scal - x/Scal.
	var sumX, sumZ, sumXZ, sumX2 float64
	n := 0
	for i := range xs {
		if ys[i] <= 0 || ys[i] >= asym {
			continue
		}
		z := math.Log(asym/ys[i] - 1)
		sumX += xs[i]
		sumZ += z
		sumXZ += xs[i] * z
		sumX2 += xs[i] * xs[i]
		n++
	}

	if n >= 2 {
		fn := float64(n)
		den := sumX2 - sumX*sumX/fn
		if den != 0 {
			slope := (sumXZ - sumX*sumZ/fn) / den
			intercept := (sumZ - slope*sumX) / fn
			scal := -1 / slope
			xmid := intercept * scal
			if !math.IsNaN(scal) && !math.IsInf(scal, 0) && scal != 0 && !math.IsNaN(xmid) {
				return Curve{Asym: asym, Xmid: xmid, Scal: scal}
			}
		}
	}

	return Curve{Asym: asym, Xmid: halfMaxCrossing(xs, ys, maxY), Scal: quarterRange(xs)}
}

// halfMaxCrossing returns the x value where y first crosses half of the
// observed maximum, linearly interpolated between the bracketing samples.
func halfMaxCrossing(xs, ys []float64, maxY float64) float64 {
	half := maxY / 2
	for i := range ys {
		if ys[i] < half {
			continue
		}
		if i == 0 || ys[i] == ys[i-1] {
			return xs[i]
		}
		frac := (half - ys[i-1]) / (ys[i] - ys[i-1])

		return xs[i-1] + frac*(xs[i]-xs[i-1])
	}

	// Never reaches half max; use the midpoint of the day range.
	return (xs[0] + xs[len(xs)-1]) / 2
}

// quarterRange returns a quarter of the observed day span, floored at one
// day so a degenerate span still yields a usable scale.
func quarterRange(xs []float64) float64 {
	span := (xs[len(xs)-1] - xs[0]) / 4
	if span <= 0 {
		return 1
	}

	return span
}
