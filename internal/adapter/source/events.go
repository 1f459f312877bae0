package source

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// ReadEvents reads the event CSV at path.
func ReadEvents(path string) (*domain.EventTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open events csv %s", path)
	}
	defer f.Close()

	table, err := ParseEvents(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parse events csv %s", path)
	}
	return table, nil
}

// ParseEvents decodes event rows from r. The first record is the header;
// short rows are padded with empty cells, long rows are an error.
func ParseEvents(r io.Reader) (*domain.EventTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, eris.New("events csv has no header")
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		columns[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var rows []domain.Event
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "read row %d", line)
		}
		if len(rec) > len(header) {
			return nil, eris.Errorf("row %d has %d fields, header has %d", line, len(rec), len(header))
		}
		rows = append(rows, eventFromRecord(rec, index))
	}

	return domain.NewEventTable(columns, rows), nil
}

func eventFromRecord(rec []string, index map[string]int) domain.Event {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	number := func(name string) float64 { return domain.ParseFloat(cell(name)) }

	e := domain.Event{
		Latitude:    number(domain.ColLatitude),
		Longitude:   number(domain.ColLongitude),
		Magnitude:   number(domain.ColMagnitude),
		DepthKm:     number(domain.ColDepth),
		Location:    cell(domain.ColLocation),
		Province:    cell(domain.ColProvince),
		Region:      cell(domain.ColRegion),
		IslandGroup: cell(domain.ColIslandGroup),
	}
	if t, ok := domain.ParseDate(cell(domain.ColDate)); ok {
		e.Date = t
	}
	for i, year := range domain.PopulationYears {
		e.Population[i] = cell(year)
	}
	return e
}
