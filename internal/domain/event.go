package domain

import (
	"math"
	"time"
)

// Event CSV column headers.
const (
	ColLatitude    = "Latitude"
	ColLongitude   = "Longitude"
	ColMagnitude   = "Magnitude"
	ColDepth       = "Depth_In_Km"
	ColDate        = "Date"
	ColLocation    = "Location"
	ColProvince    = "Province"
	ColRegion      = "Region"
	ColIslandGroup = "Island Group"
)

// PopulationYears lists the census columns carried on every event row, newest first.
var PopulationYears = [4]string{"2020", "2015", "2010", "2000"}

// Event is one earthquake row from the source CSV.
type Event struct {
	Latitude  float64 // NaN when missing
	Longitude float64 // NaN when missing
	Magnitude float64 // NaN when missing
	DepthKm   float64 // NaN when missing
	Date      time.Time
	Location  string

	Province    string
	Region      string
	IslandGroup string

	// Population holds the raw census cells in PopulationYears order.
	Population [4]string
}

// HasDate reports whether the source date parsed.
func (e Event) HasDate() bool { return !e.Date.IsZero() }

// Year returns the calendar year of the event date, or 0 when the date is invalid.
func (e Event) Year() int {
	if !e.HasDate() {
		return 0
	}
	return e.Date.Year()
}

// HasMagnitude reports whether the magnitude cell parsed.
func (e Event) HasMagnitude() bool { return !math.IsNaN(e.Magnitude) }

// HasCoords reports whether both coordinates parsed.
func (e Event) HasCoords() bool {
	return !math.IsNaN(e.Latitude) && !math.IsNaN(e.Longitude)
}

// EventTable is the raw event CSV: the header set plus one Event per row.
// Column presence matters to the preparers, so it is tracked separately from
// the zero values on each row.
type EventTable struct {
	columns []string
	present map[string]bool
	Rows    []Event
}

// NewEventTable builds a table from the CSV header and parsed rows.
func NewEventTable(columns []string, rows []Event) *EventTable {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	return &EventTable{columns: columns, present: present, Rows: rows}
}

// EmptyEventTable returns a table with no columns and no rows.
func EmptyEventTable() *EventTable {
	return NewEventTable(nil, nil)
}

// HasColumn reports whether the CSV header carried the named column.
func (t *EventTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	return t.present[name]
}

// Columns returns the header in source order.
func (t *EventTable) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// Len returns the row count.
func (t *EventTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *EventTable) Empty() bool { return t.Len() == 0 }
