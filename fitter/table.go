package fitter

import (
	"github.com/rlbaker5/McNair2023/logistic"
	"github.com/rlbaker5/McNair2023/series"
)

// Record is one row of the ParameterTable: the fitted logistic parameters of
// one plant, keyed by plant and genotype group. Fields are accessed by name;
// nothing downstream depends on a positional parameter order.
type Record struct {
	PlantID string
	Group   series.Group
	Asym    float64
	Xmid    float64
	Scal    float64

	// Fit retains the full fit result (standard errors, RSS, intervals on
	// request) for plotting and diagnostics.
	Fit *logistic.Result
}

// Table is the parameters-as-data output of a batch fit: append-only while
// the fit pass runs, read-only afterwards. Row order is insertion order;
// downstream consumers must not depend on it.
type Table struct {
	records []Record
}

// Add appends a record.
func (t *Table) Add(r Record) {
	t.records = append(t.records, r)
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Rows returns the records in insertion order. The returned slice is owned
// by the table and must not be modified.
func (t *Table) Rows() []Record {
	return t.records
}

// ByGroup returns the records of one genotype group, in insertion order.
func (t *Table) ByGroup(g series.Group) []Record {
	var out []Record
	for _, r := range t.records {
		if r.Group == g {
			out = append(out, r)
		}
	}

	return out
}
