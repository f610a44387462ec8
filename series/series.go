package series

import (
	"fmt"
	"math"
)

// Group is a genotype label, e.g. "L58" or "R500".
type Group string

// Observation is a single measurement of one plant on one day.
//
// Day is the offset in days since planting. Size is the segmented plant
// surface in pixels; a NaN Size marks a missing or erroneous measurement.
type Observation struct {
	PlantID string
	Group   Group
	Day     float64
	Size    float64
}

// Valid reports whether the observation carries a usable size measurement.
func (o Observation) Valid() bool {
	return !math.IsNaN(o.Size)
}

// Missing returns NaN, the canonical missing-size marker.
func Missing() float64 {
	return math.NaN()
}

// IndividualSeries is the day-ordered measurement sequence of one plant.
//
// The group label is assigned when the series is built and is immutable.
// Observations are sorted by day; days are non-decreasing.
type IndividualSeries struct {
	plantID string
	group   Group
	obs     []Observation
}

// PlantID returns the plant identifier.
func (s *IndividualSeries) PlantID() string { return s.plantID }

// Group returns the genotype label.
func (s *IndividualSeries) Group() Group { return s.group }

// Len returns the total number of observations, including missing ones.
func (s *IndividualSeries) Len() int { return len(s.obs) }

// Observations returns the day-ordered observations. The returned slice is
// owned by the series and must not be modified.
func (s *IndividualSeries) Observations() []Observation { return s.obs }

// Points returns the (day, size) pairs with missing sizes removed, in day
// order. These are the samples handed to the model fitter.
func (s *IndividualSeries) Points() (days, sizes []float64) {
	days = make([]float64, 0, len(s.obs))
	sizes = make([]float64, 0, len(s.obs))
	for _, o := range s.obs {
		if !o.Valid() {
			continue
		}
		days = append(days, o.Day)
		sizes = append(sizes, o.Size)
	}

	return days, sizes
}

// ValidCount returns the number of non-missing observations.
func (s *IndividualSeries) ValidCount() int {
	n := 0
	for _, o := range s.obs {
		if o.Valid() {
			n++
		}
	}

	return n
}

// SchemaError reports a structurally broken observation: a required field is
// absent entirely, which implies upstream data corruption rather than a
// single-plant anomaly. It aborts the run instead of being downgraded to a
// per-plant exclusion.
type SchemaError struct {
	Row    int    // zero-based index into the input observations
	Field  string // missing or invalid field
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at observation %d: %s: %s", e.Row, e.Field, e.Detail)
}
