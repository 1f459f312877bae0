package pipeline

import (
	"log/slog"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// ProvinceMagnitude is one row of the average-magnitude table.
type ProvinceMagnitude struct {
	Province  string  `json:"province"`
	Magnitude float64 `json:"magnitude"` // NaN when no joined event had a magnitude
	Events    int     `json:"events"`
}

// PopulationRow is one province's census figures in domain.PopulationYears order.
type PopulationRow struct {
	Province   string `json:"province"`
	Population [4]int `json:"population"`
}

// MapData is the output of PrepareMapData.
type MapData struct {
	// Averages holds only provinces with at least one intersecting event, sorted by name.
	Averages []ProvinceMagnitude
	// Population is deduplicated by province, first row wins, in source order.
	Population []PopulationRow

	Status domain.Status
	Err    error
}

// MagnitudeRange returns the min and max of the non-NaN averages. ok is false
// when there are none.
func (d MapData) MagnitudeRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, a := range d.Averages {
		if math.IsNaN(a.Magnitude) {
			continue
		}
		lo = math.Min(lo, a.Magnitude)
		hi = math.Max(hi, a.Magnitude)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// PopulationIndex maps population rows by matcher key.
func (d MapData) PopulationIndex(m domain.NameMatcher) map[string]PopulationRow {
	idx := make(map[string]PopulationRow, len(d.Population))
	for _, row := range d.Population {
		key := m.Key(row.Province)
		if _, dup := idx[key]; !dup {
			idx[key] = row
		}
	}
	return idx
}

// PrepareMapData builds the population table and the per-province average
// magnitude from the spatial join of event points against province polygons.
// Failures are logged and reported through Status; the tables are never nil.
func PrepareMapData(provinces *domain.ProvinceSet, events *domain.EventTable, m domain.NameMatcher, logger *slog.Logger) (out MapData) {
	out = MapData{Averages: []ProvinceMagnitude{}, Population: []PopulationRow{}, Status: domain.StatusOK}

	defer func() {
		if r := recover(); r != nil {
			err := eris.Errorf("prepare map data: %v", r)
			logger.Error("map data preparation failed", "error", err, "stack", eris.ToString(err, true))
			out = MapData{Averages: []ProvinceMagnitude{}, Population: []PopulationRow{}, Status: domain.StatusDegraded, Err: err}
		}
	}()

	if events.Empty() || provinces.Empty() {
		logger.Warn("map data skipped, input is empty",
			"provinces", provinces.Len(),
			"events", events.Len(),
		)
		out.Status = domain.StatusEmpty
		return out
	}

	if events.HasColumn(domain.ColProvince) {
		out.Population = populationTable(events.Rows, m)
	} else {
		logger.Warn("population table skipped", "error", eris.Wrapf(domain.ErrMissingColumn, "column %q", domain.ColProvince))
	}

	averages, err := averageMagnitudes(provinces, events)
	if err != nil {
		logger.Warn("average magnitude table skipped", "error", err)
		out.Status = domain.StatusDegraded
		out.Err = err
		return out
	}
	if len(averages) == 0 {
		logger.Warn("spatial join matched no events", "events", events.Len(), "provinces", provinces.Len())
		out.Status = domain.StatusEmpty
		return out
	}
	out.Averages = averages

	logger.Info("map data prepared",
		"provinces_with_events", len(out.Averages),
		"population_rows", len(out.Population),
	)
	return out
}

// populationTable keeps the first row per province (by matcher key), skipping
// rows without a province. Missing or non-numeric figures become zero.
func populationTable(rows []domain.Event, m domain.NameMatcher) []PopulationRow {
	seen := make(map[string]bool)
	table := make([]PopulationRow, 0)
	for _, e := range rows {
		if e.Province == "" {
			continue
		}
		key := m.Key(e.Province)
		if seen[key] {
			continue
		}
		seen[key] = true

		row := PopulationRow{Province: e.Province}
		for i, cell := range e.Population {
			if v, ok := domain.ParsePopulation(cell); ok {
				row.Population[i] = v
			}
		}
		table = append(table, row)
	}
	return table
}

type magnitudeSum struct {
	total  float64
	valued int
	events int
}

// averageMagnitudes joins every event point to each province polygon it
// intersects and averages the magnitudes per province name. An event on a
// shared border counts towards every province it touches.
func averageMagnitudes(provinces *domain.ProvinceSet, events *domain.EventTable) ([]ProvinceMagnitude, error) {
	for _, col := range []string{domain.ColLongitude, domain.ColLatitude, domain.ColMagnitude} {
		if !events.HasColumn(col) {
			return nil, eris.Wrapf(domain.ErrMissingColumn, "column %q", col)
		}
	}

	sums := make(map[string]*magnitudeSum)
	for _, e := range events.Rows {
		if !e.HasCoords() {
			continue
		}
		pt := orb.Point{e.Longitude, e.Latitude}
		for _, p := range provinces.Provinces {
			if !p.Intersects(pt) {
				continue
			}
			s, ok := sums[p.Name]
			if !ok {
				s = &magnitudeSum{}
				sums[p.Name] = s
			}
			s.events++
			if e.HasMagnitude() {
				s.total += e.Magnitude
				s.valued++
			}
		}
	}

	out := make([]ProvinceMagnitude, 0, len(sums))
	for name, s := range sums {
		avg := math.NaN()
		if s.valued > 0 {
			avg = s.total / float64(s.valued)
		}
		out = append(out, ProvinceMagnitude{Province: name, Magnitude: avg, Events: s.events})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Province < out[j].Province })
	return out, nil
}

// FilterAverages returns the rows whose magnitude falls inside the bucket.
func FilterAverages(rows []ProvinceMagnitude, b domain.Bucket) []ProvinceMagnitude {
	if b.All {
		return rows
	}
	out := make([]ProvinceMagnitude, 0, len(rows))
	for _, r := range rows {
		if b.Contains(r.Magnitude) {
			out = append(out, r)
		}
	}
	return out
}
