package pipeline

import (
	"log/slog"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// Category is a grouping column of the count table and a filter mode of the
// trends explorer.
type Category string

const (
	CategoryProvince    Category = "Province"
	CategoryRegion      Category = "Region"
	CategoryIslandGroup Category = "Island Group"
)

// Categories lists the filter modes in display order.
var Categories = []Category{CategoryProvince, CategoryRegion, CategoryIslandGroup}

// ParseCategory maps a filter mode string to a Category. Empty or unknown
// strings mean no filter.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// CountRow is one (year, province, region, island group) group size.
type CountRow struct {
	Year        int    `json:"year"`
	Province    string `json:"province"`
	Region      string `json:"region"`
	IslandGroup string `json:"island_group"`
	Count       int    `json:"count"`
}

// Value returns the row's value for a grouping column.
func (r CountRow) Value(c Category) string {
	switch c {
	case CategoryProvince:
		return r.Province
	case CategoryRegion:
		return r.Region
	case CategoryIslandGroup:
		return r.IslandGroup
	default:
		return ""
	}
}

// YearCount is one row of the overall per-year table.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// TrendData is the output of PrepareLineChartData.
type TrendData struct {
	Counts  []CountRow  // sorted by year, province, region, island group
	Overall []YearCount // sorted by year

	Provinces    []string
	Regions      []string
	IslandGroups []string

	MinYear int
	MaxYear int
	Years   []int

	Status domain.Status
	Err    error
}

// Domain returns the sorted distinct values of a grouping column.
func (d TrendData) Domain(c Category) []string {
	switch c {
	case CategoryProvince:
		return d.Provinces
	case CategoryRegion:
		return d.Regions
	case CategoryIslandGroup:
		return d.IslandGroups
	default:
		return nil
	}
}

// Empty reports whether either aggregate table has no rows.
func (d TrendData) Empty() bool { return len(d.Counts) == 0 || len(d.Overall) == 0 }

// DefaultTrendData returns the values used when no aggregate can be built.
func DefaultTrendData(status domain.Status, err error) TrendData {
	return TrendData{
		Counts:       []CountRow{},
		Overall:      []YearCount{},
		Provinces:    []string{},
		Regions:      []string{},
		IslandGroups: []string{},
		MinYear:      domain.DefaultMinYear,
		MaxYear:      domain.DefaultMaxYear(),
		Years:        domain.DefaultYears(),
		Status:       status,
		Err:          err,
	}
}

var groupingColumns = []string{domain.ColDate, domain.ColProvince, domain.ColRegion, domain.ColIslandGroup}

type groupKey struct {
	year                          int
	province, region, islandGroup string
}

// PrepareLineChartData counts events per (year, province, region, island
// group) and per year. Rows without a parseable date or with an empty grouping
// value are excluded. Any failure returns DefaultTrendData, never partial results.
func PrepareLineChartData(events *domain.EventTable, logger *slog.Logger) (out TrendData) {
	defer func() {
		if r := recover(); r != nil {
			err := eris.Errorf("prepare line chart data: %v", r)
			logger.Error("line chart preparation failed", "error", err, "stack", eris.ToString(err, true))
			out = DefaultTrendData(domain.StatusDegraded, err)
		}
	}()

	if events.Empty() {
		logger.Warn("line chart data skipped, event table is empty")
		return DefaultTrendData(domain.StatusEmpty, nil)
	}

	var missing []string
	for _, col := range groupingColumns {
		if !events.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		err := eris.Wrapf(domain.ErrMissingColumn, "columns %v", missing)
		logger.Warn("line chart data skipped", "error", err)
		return DefaultTrendData(domain.StatusDegraded, err)
	}

	groups := make(map[groupKey]int)
	overall := make(map[int]int)
	undated := 0
	for _, e := range events.Rows {
		if !e.HasDate() {
			undated++
			continue
		}
		if e.Province == "" || e.Region == "" || e.IslandGroup == "" {
			continue
		}
		year := e.Year()
		groups[groupKey{year: year, province: e.Province, region: e.Region, islandGroup: e.IslandGroup}]++
		overall[year]++
	}

	if len(groups) == 0 {
		logger.Warn("no events left after cleaning grouping columns", "events", events.Len(), "undated", undated)
		return DefaultTrendData(domain.StatusEmpty, nil)
	}

	out = TrendData{Status: domain.StatusOK}
	out.Counts = make([]CountRow, 0, len(groups))
	for k, n := range groups {
		out.Counts = append(out.Counts, CountRow{
			Year: k.year, Province: k.province, Region: k.region, IslandGroup: k.islandGroup, Count: n,
		})
	}
	sort.Slice(out.Counts, func(i, j int) bool {
		a, b := out.Counts[i], out.Counts[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Province != b.Province {
			return a.Province < b.Province
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.IslandGroup < b.IslandGroup
	})

	out.Overall = make([]YearCount, 0, len(overall))
	for y, n := range overall {
		out.Overall = append(out.Overall, YearCount{Year: y, Count: n})
	}
	sort.Slice(out.Overall, func(i, j int) bool { return out.Overall[i].Year < out.Overall[j].Year })

	out.Provinces = distinct(out.Counts, CategoryProvince)
	out.Regions = distinct(out.Counts, CategoryRegion)
	out.IslandGroups = distinct(out.Counts, CategoryIslandGroup)

	out.Years = make([]int, len(out.Overall))
	for i, yc := range out.Overall {
		out.Years[i] = yc.Year
	}
	out.MinYear = out.Years[0]
	out.MaxYear = out.Years[len(out.Years)-1]

	logger.Info("line chart data prepared",
		"groups", len(out.Counts),
		"years", len(out.Years),
		"min_year", out.MinYear,
		"max_year", out.MaxYear,
		"undated", undated,
	)
	return out
}

func distinct(rows []CountRow, c Category) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		v := r.Value(c)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// InRange returns the count rows with start <= year <= end.
func (d TrendData) InRange(start, end int) []CountRow {
	out := make([]CountRow, 0, len(d.Counts))
	for _, r := range d.Counts {
		if r.Year >= start && r.Year <= end {
			out = append(out, r)
		}
	}
	return out
}

// OverallInRange returns the overall rows with start <= year <= end.
func (d TrendData) OverallInRange(start, end int) []YearCount {
	out := make([]YearCount, 0, len(d.Overall))
	for _, r := range d.Overall {
		if r.Year >= start && r.Year <= end {
			out = append(out, r)
		}
	}
	return out
}

// SumByYear totals the rows whose column c equals value, per year in ascending order.
func SumByYear(rows []CountRow, c Category, value string) []YearCount {
	totals := make(map[int]int)
	for _, r := range rows {
		if r.Value(c) == value {
			totals[r.Year] += r.Count
		}
	}
	out := make([]YearCount, 0, len(totals))
	for y, n := range totals {
		out = append(out, YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
