package series

import (
	"slices"
)

// Store groups observations by plant into read-only IndividualSeries.
//
// Build validates the input once; afterwards the store only serves lookups.
type Store struct {
	byPlant map[string]*IndividualSeries
	plants  []string // sorted plant IDs for deterministic iteration
}

// Build constructs a Store from raw observations.
//
// Observations are grouped by PlantID and sorted by day within each plant.
// The first observation of a plant fixes its group label; a later observation
// of the same plant with a different label is a SchemaError, as are an empty
// PlantID, an empty Group, or a negative Day. A NaN Size is legal (missing
// measurement) and is kept in the series.
func Build(obs []Observation) (*Store, error) {
	byPlant := make(map[string]*IndividualSeries)

	for i, o := range obs {
		if o.PlantID == "" {
			return nil, &SchemaError{Row: i, Field: "plant_id", Detail: "empty identifier"}
		}
		if o.Group == "" {
			return nil, &SchemaError{Row: i, Field: "group", Detail: "empty genotype label"}
		}
		if o.Day < 0 {
			return nil, &SchemaError{Row: i, Field: "day", Detail: "negative day offset"}
		}

		s, ok := byPlant[o.PlantID]
		if !ok {
			s = &IndividualSeries{plantID: o.PlantID, group: o.Group}
			byPlant[o.PlantID] = s
		} else if s.group != o.Group {
			return nil, &SchemaError{
				Row:    i,
				Field:  "group",
				Detail: "plant " + o.PlantID + " observed under two group labels",
			}
		}
		s.obs = append(s.obs, o)
	}

	plants := make([]string, 0, len(byPlant))
	for id, s := range byPlant {
		slices.SortStableFunc(s.obs, func(a, b Observation) int {
			switch {
			case a.Day < b.Day:
				return -1
			case a.Day > b.Day:
				return 1
			default:
				return 0
			}
		})
		plants = append(plants, id)
	}
	slices.Sort(plants)

	return &Store{byPlant: byPlant, plants: plants}, nil
}

// Len returns the number of plants in the store.
func (st *Store) Len() int { return len(st.byPlant) }

// Plants returns the plant identifiers in sorted order.
func (st *Store) Plants() []string { return st.plants }

// Series returns the series of one plant, or nil when the plant is unknown.
func (st *Store) Series(plantID string) *IndividualSeries {
	return st.byPlant[plantID]
}

// All returns every series in sorted plant-ID order.
func (st *Store) All() []*IndividualSeries {
	out := make([]*IndividualSeries, 0, len(st.plants))
	for _, id := range st.plants {
		out = append(out, st.byPlant[id])
	}

	return out
}

// Groups returns the distinct group labels present, sorted.
func (st *Store) Groups() []Group {
	seen := make(map[Group]struct{})
	for _, s := range st.byPlant {
		seen[s.group] = struct{}{}
	}
	out := make([]Group, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	slices.Sort(out)

	return out
}
