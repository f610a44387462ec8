// Package anova performs the parameters-as-data second stage of the
// pipeline: each fitted logistic parameter becomes an observation, and a
// one-way linear model compares the two genotype groups.
//
// With a single two-level factor the linear model collapses to the
// pooled-variance two-sample t-test; the F statistic reported alongside is
// t squared, matching what an anova() call on the same model prints.
package anova

import (
	"fmt"
	"math"

	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/internal/stat"
	"github.com/rlbaker5/McNair2023/series"
)

// GroupSummary describes one genotype group's sample of a parameter.
type GroupSummary struct {
	Group    series.Group
	N        int
	Mean     float64
	Variance float64 // sample variance
}

// Test is the group comparison for one fitted parameter.
type Test struct {
	Parameter string
	Groups    [2]GroupSummary

	// Effect is the second group's mean minus the first group's mean,
	// groups ordered by label.
	Effect   float64
	StdErr   float64
	T        float64
	F        float64
	DF       int
	PValue   float64
	RSquared float64
}

func (t Test) String() string {
	return fmt.Sprintf("%s: %s %.4g vs %s %.4g (effect %.4g, F=%.3f, p=%.4g)",
		t.Parameter,
		t.Groups[0].Group, t.Groups[0].Mean,
		t.Groups[1].Group, t.Groups[1].Mean,
		t.Effect, t.F, t.PValue)
}

// Comparison bundles the three per-parameter tests, bound by name.
type Comparison struct {
	Asym Test
	Xmid Test
	Scal Test
}

// Tests returns the three tests for iteration, in fixed parameter order.
func (c *Comparison) Tests() []Test {
	return []Test{c.Asym, c.Xmid, c.Scal}
}

// Compare runs the per-parameter group comparison over a parameter table.
//
// The table must contain exactly two group labels with at least two records
// each; anything else is an error, since the design is a fixed two-genotype
// contrast.
func Compare(table *fitter.Table) (*Comparison, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("empty parameter table")
	}

	groups := distinctGroups(table)
	if len(groups) != 2 {
		return nil, fmt.Errorf("group comparison needs exactly 2 groups, table has %d", len(groups))
	}

	a := table.ByGroup(groups[0])
	b := table.ByGroup(groups[1])
	if len(a) < 2 || len(b) < 2 {
		return nil, fmt.Errorf("each group needs at least 2 fitted plants, got %d and %d", len(a), len(b))
	}

	cmp := &Comparison{
		Asym: twoSample("Asym", groups, pluck(a, asym), pluck(b, asym)),
		Xmid: twoSample("Xmid", groups, pluck(a, xmid), pluck(b, xmid)),
		Scal: twoSample("Scal", groups, pluck(a, scal), pluck(b, scal)),
	}

	return cmp, nil
}

func asym(r fitter.Record) float64 { return r.Asym }
func xmid(r fitter.Record) float64 { return r.Xmid }
func scal(r fitter.Record) float64 { return r.Scal }

func pluck(recs []fitter.Record, field func(fitter.Record) float64) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = field(r)
	}

	return out
}

func distinctGroups(table *fitter.Table) []series.Group {
	var out []series.Group
	for _, r := range table.Rows() {
		found := false
		for _, g := range out {
			if g == r.Group {
				found = true
				break
			}
		}
		if !found {
			out = append(out, r.Group)
		}
	}
	// Sort the (at most few) labels for a deterministic group order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out
}

// twoSample runs the pooled-variance comparison of one parameter.
func twoSample(name string, groups []series.Group, xs, ys []float64) Test {
	mx, vx := meanVar(xs)
	my, vy := meanVar(ys)
	nx, ny := float64(len(xs)), float64(len(ys))

	df := len(xs) + len(ys) - 2
	pooled := ((nx-1)*vx + (ny-1)*vy) / float64(df)
	se := math.Sqrt(pooled * (1/nx + 1/ny))

	t := math.NaN()
	if se > 0 {
		t = (my - mx) / se
	}

	// R-squared of the one-way model: between-group over total sum of squares.
	grand := (nx*mx + ny*my) / (nx + ny)
	ssBetween := nx*(mx-grand)*(mx-grand) + ny*(my-grand)*(my-grand)
	ssTotal := ssBetween + (nx-1)*vx + (ny-1)*vy
	r2 := 0.0
	if ssTotal > 0 {
		r2 = ssBetween / ssTotal
	}

	return Test{
		Parameter: name,
		Groups: [2]GroupSummary{
			{Group: groups[0], N: len(xs), Mean: mx, Variance: vx},
			{Group: groups[1], N: len(ys), Mean: my, Variance: vy},
		},
		Effect:   my - mx,
		StdErr:   se,
		T:        t,
		F:        t * t,
		DF:       df,
		PValue:   stat.TPValue(t, df),
		RSquared: r2,
	}
}

// meanVar returns the sample mean and the unbiased sample variance.
func meanVar(xs []float64) (mean, variance float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n

	if len(xs) < 2 {
		return mean, 0
	}
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n - 1

	return mean, variance
}
