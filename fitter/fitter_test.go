package fitter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rlbaker5/McNair2023/logistic"
	"github.com/rlbaker5/McNair2023/series"
)

func buildStore(t *testing.T, obs []series.Observation) *series.Store {
	t.Helper()
	store, err := series.Build(obs)
	require.NoError(t, err)

	return store
}

// sigmoidObs generates observations for one plant from a known curve.
func sigmoidObs(id string, group series.Group, c logistic.Curve, days []float64) []series.Observation {
	obs := make([]series.Observation, 0, len(days))
	for _, d := range days {
		obs = append(obs, series.Observation{PlantID: id, Group: group, Day: d, Size: c.Value(d)})
	}

	return obs
}

// ==============================================================================
// Partial failure isolation
// ==============================================================================

func TestFitAll_OneGoodPlantOneDegenerate(t *testing.T) {
	obs := []series.Observation{
		{PlantID: "a-1", Group: "A", Day: 5, Size: 100},
		{PlantID: "a-1", Group: "A", Day: 10, Size: 2000},
		{PlantID: "a-1", Group: "A", Day: 15, Size: 8000},
		{PlantID: "a-1", Group: "A", Day: 20, Size: 9500},
		{PlantID: "a-1", Group: "A", Day: 25, Size: 9800},
		{PlantID: "b-1", Group: "B", Day: 5, Size: 120},
		{PlantID: "b-1", Group: "B", Day: 10, Size: 900},
	}

	f, err := New()
	require.NoError(t, err)

	table, failures, err := f.FitAll(buildStore(t, obs))
	require.NoError(t, err)

	require.Equal(t, 1, table.Len(), "the healthy plant still produces a row")
	require.Len(t, failures, 1, "the degenerate plant is excluded, not fatal")

	rec := table.Rows()[0]
	require.Equal(t, "a-1", rec.PlantID)
	require.Equal(t, series.Group("A"), rec.Group)
	require.Greater(t, rec.Asym, 9000.0)
	require.Greater(t, rec.Scal, 0.0)
	require.NotNil(t, rec.Fit)

	fail := failures[0]
	require.Equal(t, "b-1", fail.PlantID)
	require.Equal(t, series.Group("B"), fail.Group)
	require.Contains(t, fail.Reason, "degenerate data")

	var deg *logistic.DegenerateDataError
	require.ErrorAs(t, fail.Err, &deg)
}

func TestFitAll_RowCountIsPlantsMinusFailures(t *testing.T) {
	truth := logistic.Curve{Asym: 8000, Xmid: 14, Scal: 2.5}
	days := []float64{4, 8, 12, 16, 20, 24, 28}

	var obs []series.Observation
	for i := 0; i < 5; i++ {
		obs = append(obs, sigmoidObs(fmt.Sprintf("good-%d", i), "A", truth, days)...)
	}
	// Two plants that cannot be fitted: too few points and zero variance.
	obs = append(obs,
		series.Observation{PlantID: "short", Group: "B", Day: 5, Size: 100},
		series.Observation{PlantID: "short", Group: "B", Day: 10, Size: 200},
	)
	for _, d := range days {
		obs = append(obs, series.Observation{PlantID: "flat", Group: "B", Day: d, Size: 500})
	}

	f, err := New()
	require.NoError(t, err)

	table, failures, err := f.FitAll(buildStore(t, obs))
	require.NoError(t, err)
	require.Equal(t, 5, table.Len())
	require.Len(t, failures, 2)
}

func TestFitAll_MissingSizesDroppedBeforeFitting(t *testing.T) {
	// Six observations but only two usable ones: must be excluded as
	// degenerate without ever reaching the optimizer.
	obs := []series.Observation{
		{PlantID: "p", Group: "A", Day: 4, Size: series.Missing()},
		{PlantID: "p", Group: "A", Day: 8, Size: 300},
		{PlantID: "p", Group: "A", Day: 12, Size: series.Missing()},
		{PlantID: "p", Group: "A", Day: 16, Size: series.Missing()},
		{PlantID: "p", Group: "A", Day: 20, Size: 4000},
		{PlantID: "p", Group: "A", Day: 24, Size: series.Missing()},
	}

	f, err := New()
	require.NoError(t, err)

	table, failures, err := f.FitAll(buildStore(t, obs))
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
	require.Len(t, failures, 1)
	require.Contains(t, failures[0].Reason, "2 valid points")
}

func TestFitAll_EmptyStore(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	_, _, err = f.FitAll(nil)
	require.Error(t, err)
}

// ==============================================================================
// Determinism and parallelism
// ==============================================================================

func TestFitAll_Idempotent(t *testing.T) {
	truth := logistic.Curve{Asym: 9000, Xmid: 15, Scal: 2}
	days := []float64{3, 7, 11, 15, 19, 23, 27}

	var obs []series.Observation
	for i := 0; i < 4; i++ {
		obs = append(obs, sigmoidObs(fmt.Sprintf("p-%d", i), "A", truth, days)...)
	}
	store := buildStore(t, obs)

	f, err := New()
	require.NoError(t, err)

	first, _, err := f.FitAll(store)
	require.NoError(t, err)
	second, _, err := f.FitAll(store)
	require.NoError(t, err)

	require.Equal(t, first.Rows(), second.Rows(), "same store must give the same table")
}

func TestFitAll_ParallelMatchesSequential(t *testing.T) {
	days := []float64{4, 8, 12, 16, 20, 24, 28}

	var obs []series.Observation
	for i := 0; i < 9; i++ {
		c := logistic.Curve{Asym: 6000 + float64(i)*300, Xmid: 12 + float64(i)*0.5, Scal: 2.5}
		obs = append(obs, sigmoidObs(fmt.Sprintf("plant-%02d", i), "A", c, days)...)
	}
	// One broken plant so the failure path is exercised in both modes.
	obs = append(obs,
		series.Observation{PlantID: "plant-99", Group: "B", Day: 5, Size: 10},
		series.Observation{PlantID: "plant-99", Group: "B", Day: 10, Size: 20},
	)
	store := buildStore(t, obs)

	seq, err := New(WithWorkers(1))
	require.NoError(t, err)
	par, err := New(WithWorkers(4))
	require.NoError(t, err)

	seqTable, seqFails, err := seq.FitAll(store)
	require.NoError(t, err)
	parTable, parFails, err := par.FitAll(store)
	require.NoError(t, err)

	require.Equal(t, seqTable.Rows(), parTable.Rows(), "worker count must not change results")
	require.Equal(t, seqFails, parFails)
}

func TestFitAll_MoreWorkersThanPlants(t *testing.T) {
	obs := sigmoidObs("only", "A", logistic.Curve{Asym: 5000, Xmid: 12, Scal: 2}, []float64{4, 8, 12, 16, 20})

	f, err := New(WithWorkers(16))
	require.NoError(t, err)

	table, failures, err := f.FitAll(buildStore(t, obs))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	require.Empty(t, failures)
}

func TestNew_RejectsNonPositiveWorkers(t *testing.T) {
	_, err := New(WithWorkers(0))
	require.Error(t, err)
	_, err = New(WithWorkers(-3))
	require.Error(t, err)
}

// ==============================================================================
// Table and report
// ==============================================================================

func TestTable_ByGroup(t *testing.T) {
	table := &Table{}
	table.Add(Record{PlantID: "a-1", Group: "A", Asym: 100})
	table.Add(Record{PlantID: "b-1", Group: "B", Asym: 200})
	table.Add(Record{PlantID: "a-2", Group: "A", Asym: 110})

	require.Equal(t, 3, table.Len())
	require.Len(t, table.ByGroup("A"), 2)
	require.Len(t, table.ByGroup("B"), 1)
	require.Empty(t, table.ByGroup("C"))
}

func TestReport(t *testing.T) {
	require.Equal(t, "", Report(nil), "a clean run produces no report")

	failures := []Failure{
		{PlantID: "b-1", Group: "B", Reason: "degenerate data: 2 valid points, need at least 4"},
		{PlantID: "c-7", Group: "A", Reason: "no convergence within 50 iterations"},
	}
	report := Report(failures)
	require.Contains(t, report, "2 plant(s) excluded")
	require.Contains(t, report, "b-1 (B): degenerate data")
	require.Contains(t, report, "c-7 (A): no convergence")
}
