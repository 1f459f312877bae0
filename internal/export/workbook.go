// Package export renders snapshot tables and trend figures as downloadable
// files.
package export

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Workbook sheet names.
const (
	SheetCounts     = "Counts"
	SheetOverall    = "Overall"
	SheetAverages   = "Average Magnitude"
	SheetPopulation = "Population"
)

// Workbook writes the snapshot's derived tables to one sheet each. The caller
// owns the returned file and must Close it.
func Workbook(snap *pipeline.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetCounts); err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, eris.Wrap(err, "rename default sheet")
	}
	for _, name := range []string{SheetOverall, SheetAverages, SheetPopulation} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close() //nolint:errcheck // already failing
			return nil, eris.Wrapf(err, "create sheet %q", name)
		}
	}

	counts := make([][]any, len(snap.Trends.Counts))
	for i, r := range snap.Trends.Counts {
		counts[i] = []any{r.Year, r.Province, r.Region, r.IslandGroup, r.Count}
	}
	overall := make([][]any, len(snap.Trends.Overall))
	for i, r := range snap.Trends.Overall {
		overall[i] = []any{r.Year, r.Count}
	}
	averages := make([][]any, len(snap.Map.Averages))
	for i, r := range snap.Map.Averages {
		var mag any
		if !math.IsNaN(r.Magnitude) {
			mag = r.Magnitude
		}
		averages[i] = []any{r.Province, mag, r.Events}
	}
	population := make([][]any, len(snap.Map.Population))
	for i, r := range snap.Map.Population {
		population[i] = []any{r.Province, r.Population[0], r.Population[1], r.Population[2], r.Population[3]}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetCounts, []any{"Year", "Province", "Region", "Island Group", "Count"}, counts},
		{SheetOverall, []any{"Year", "Count"}, overall},
		{SheetAverages, []any{"Province", "Avg Magnitude", "Events"}, averages},
		{SheetPopulation, []any{"Province", "2020", "2015", "2010", "2000"}, population},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows); err != nil {
			f.Close() //nolint:errcheck // already failing
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Earthquake counts",
		Subject: "snapshot " + snap.ID,
		Creator: "quake-explorer",
	}); err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, eris.Wrap(err, "set document properties")
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return eris.Wrapf(err, "write %s header", sheet)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrapf(err, "%s row %d", sheet, i)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return eris.Wrapf(err, "write %s row %d", sheet, i)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return eris.Wrapf(err, "freeze %s header", sheet)
	}
	return nil
}
