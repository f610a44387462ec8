package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_GroupsAndSortsByDay(t *testing.T) {
	obs := []Observation{
		{PlantID: "p-2", Group: "B", Day: 10, Size: 200},
		{PlantID: "p-1", Group: "A", Day: 15, Size: 900},
		{PlantID: "p-1", Group: "A", Day: 5, Size: 100},
		{PlantID: "p-1", Group: "A", Day: 10, Size: 400},
		{PlantID: "p-2", Group: "B", Day: 5, Size: 80},
	}

	st, err := Build(obs)
	require.NoError(t, err)

	require.Equal(t, 2, st.Len())
	require.Equal(t, []string{"p-1", "p-2"}, st.Plants())
	require.Equal(t, []Group{"A", "B"}, st.Groups())

	s := st.Series("p-1")
	require.NotNil(t, s)
	require.Equal(t, "p-1", s.PlantID())
	require.Equal(t, Group("A"), s.Group())
	require.Equal(t, 3, s.Len())

	days, sizes := s.Points()
	require.Equal(t, []float64{5, 10, 15}, days, "observations are day-ordered")
	require.Equal(t, []float64{100, 400, 900}, sizes)

	require.Nil(t, st.Series("unknown"))
}

func TestBuild_AllFollowsSortedPlantOrder(t *testing.T) {
	obs := []Observation{
		{PlantID: "z", Group: "A", Day: 1, Size: 1},
		{PlantID: "a", Group: "A", Day: 1, Size: 1},
		{PlantID: "m", Group: "A", Day: 1, Size: 1},
	}

	st, err := Build(obs)
	require.NoError(t, err)

	var ids []string
	for _, s := range st.All() {
		ids = append(ids, s.PlantID())
	}
	require.Equal(t, []string{"a", "m", "z"}, ids)
}

func TestBuild_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		obs   []Observation
		field string
	}{
		{
			name:  "empty plant id",
			obs:   []Observation{{PlantID: "", Group: "A", Day: 1, Size: 10}},
			field: "plant_id",
		},
		{
			name:  "empty group",
			obs:   []Observation{{PlantID: "p", Group: "", Day: 1, Size: 10}},
			field: "group",
		},
		{
			name:  "negative day",
			obs:   []Observation{{PlantID: "p", Group: "A", Day: -1, Size: 10}},
			field: "day",
		},
		{
			name: "conflicting group labels",
			obs: []Observation{
				{PlantID: "p", Group: "A", Day: 1, Size: 10},
				{PlantID: "p", Group: "B", Day: 2, Size: 20},
			},
			field: "group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.obs)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.Equal(t, tt.field, schemaErr.Field)
			require.Equal(t, len(tt.obs)-1, schemaErr.Row, "the offending row is reported")
		})
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	st, err := Build(nil)
	require.NoError(t, err)
	require.Equal(t, 0, st.Len())
	require.Empty(t, st.Plants())
}

func TestMissingValues(t *testing.T) {
	require.True(t, math.IsNaN(Missing()))

	obs := []Observation{
		{PlantID: "p", Group: "A", Day: 1, Size: 10},
		{PlantID: "p", Group: "A", Day: 2, Size: Missing()},
		{PlantID: "p", Group: "A", Day: 3, Size: 30},
	}

	st, err := Build(obs)
	require.NoError(t, err)

	s := st.Series("p")
	require.Equal(t, 3, s.Len(), "missing observations stay in the series")
	require.Equal(t, 2, s.ValidCount())

	days, sizes := s.Points()
	require.Equal(t, []float64{1, 3}, days, "points skip missing sizes")
	require.Equal(t, []float64{10, 30}, sizes)
}

func TestObservation_Valid(t *testing.T) {
	require.True(t, Observation{Size: 0}.Valid(), "zero is a legal measurement")
	require.False(t, Observation{Size: Missing()}.Valid())
}
