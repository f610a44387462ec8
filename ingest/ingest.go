// Package ingest reads the collaborator-owned phenotyping table into
// observations and writes the fitted parameter table back out.
//
// The input is a per-observation CSV with named columns for the plant
// identifier, genotype label, planting date, observation date and the size
// measurement. Column names and the date layout are configurable; day
// offsets are derived as observation date minus planting date in days.
// An empty or "NA" size cell becomes a missing observation (NaN), which the
// fit pass excludes; it is never imputed.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rlbaker5/McNair2023/fitter"
	"github.com/rlbaker5/McNair2023/series"
)

// CSVOptions selects the collaborator columns and the date layout.
type CSVOptions struct {
	PlantColumn    string // plant identifier column
	GroupColumn    string // genotype label column
	PlantedColumn  string // planting date column
	MeasuredColumn string // observation date column
	SizeColumn     string // size measurement column
	DateFormat     string // Go reference layout for both date columns
}

// DefaultCSVOptions returns the column names of the phenotyping export this
// pipeline was built for.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		PlantColumn:    "PlantID",
		GroupColumn:    "Genotype",
		PlantedColumn:  "PlantingDate",
		MeasuredColumn: "Date",
		SizeColumn:     "TopPlantSurface",
		DateFormat:     "2006-01-02",
	}
}

// ReadObservations parses the per-observation CSV into raw observations
// ready for series.Build.
//
// Structural problems (missing columns, unparseable identifier/group/date
// cells) surface as series.SchemaError: they imply upstream corruption and
// abort the run. An unparseable size cell is per-plant noise, not structure,
// and becomes a missing value instead.
func ReadObservations(r io.Reader, opts *CSVOptions) ([]series.Observation, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	required := []string{
		opts.PlantColumn, opts.GroupColumn, opts.PlantedColumn,
		opts.MeasuredColumn, opts.SizeColumn,
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, &series.SchemaError{Row: 0, Field: name, Detail: "column not found in header"}
		}
	}

	var obs []series.Observation
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		plant := strings.TrimSpace(rec[col[opts.PlantColumn]])
		group := strings.TrimSpace(rec[col[opts.GroupColumn]])
		if plant == "" {
			return nil, &series.SchemaError{Row: row, Field: opts.PlantColumn, Detail: "empty identifier"}
		}
		if group == "" {
			return nil, &series.SchemaError{Row: row, Field: opts.GroupColumn, Detail: "empty genotype label"}
		}

		planted, err := time.Parse(opts.DateFormat, strings.TrimSpace(rec[col[opts.PlantedColumn]]))
		if err != nil {
			return nil, &series.SchemaError{Row: row, Field: opts.PlantedColumn, Detail: err.Error()}
		}
		measured, err := time.Parse(opts.DateFormat, strings.TrimSpace(rec[col[opts.MeasuredColumn]]))
		if err != nil {
			return nil, &series.SchemaError{Row: row, Field: opts.MeasuredColumn, Detail: err.Error()}
		}

		day := measured.Sub(planted).Hours() / 24
		if day < 0 {
			return nil, &series.SchemaError{Row: row, Field: opts.MeasuredColumn, Detail: "observation before planting date"}
		}

		obs = append(obs, series.Observation{
			PlantID: plant,
			Group:   series.Group(group),
			Day:     day,
			Size:    parseSize(rec[col[opts.SizeColumn]]),
		})
	}

	return obs, nil
}

// ReadObservationsFile is ReadObservations over a file path.
func ReadObservationsFile(path string, opts *CSVOptions) ([]series.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	return ReadObservations(f, opts)
}

// parseSize converts a size cell to a float, mapping empty, "NA" and
// unparseable cells to the missing marker.
func parseSize(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "nan") {
		return series.Missing()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v < 0 {
		return series.Missing()
	}

	return v
}

// WriteParameters writes the parameter table as CSV for downstream tools,
// one row per fitted plant with named parameter columns.
func WriteParameters(w io.Writer, table *fitter.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"plant_id", "group", "asym", "xmid", "scal"}); err != nil {
		return fmt.Errorf("write parameters header: %w", err)
	}

	for _, r := range table.Rows() {
		row := []string{
			r.PlantID,
			string(r.Group),
			strconv.FormatFloat(r.Asym, 'g', -1, 64),
			strconv.FormatFloat(r.Xmid, 'g', -1, 64),
			strconv.FormatFloat(r.Scal, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write parameters row for %s: %w", r.PlantID, err)
		}
	}
	cw.Flush()

	return cw.Error()
}
