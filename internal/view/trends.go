package view

import (
	"slices"
	"strconv"

	"github.com/couchcryptid/quake-explorer-service/internal/figure"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Overall toggle values.
const (
	ToggleOverall      = "overall"
	ToggleProvinces    = "overall_provinces"
	ToggleRegions      = "overall_regions"
	ToggleIslandGroups = "overall_island_groups"
)

const (
	titleTrends          = "Earthquake Trends Explorer"
	titleTrendsError     = "Error generating line chart"
	titleTrendsNoData    = "Data unavailable"
	titleTrendsNoOptions = "Select options or adjust year range"
)

// toggleCategories maps the per-category toggles to their grouping column, in
// the order their lines are drawn.
var toggleCategories = []struct {
	toggle   string
	category pipeline.Category
}{
	{ToggleProvinces, pipeline.CategoryProvince},
	{ToggleRegions, pipeline.CategoryRegion},
	{ToggleIslandGroups, pipeline.CategoryIslandGroup},
}

// Option is one checklist entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterOptions is the category checklist for a filter mode.
type FilterOptions struct {
	Style   Style    `json:"line-chart-filter-selector-container.style"`
	Options []Option `json:"line-chart-filter-selector.options"`
}

// UpdateFilterOptions lists the categories for the filter mode. The checklist
// is hidden when the mode is unset, unknown, or has no categories.
func (c *Controller) UpdateFilterOptions(mode string) FilterOptions {
	out, _ := transition(c, CallbackFilterOptions, func() (FilterOptions, bool, error) {
		out := FilterOptions{Style: styleHidden, Options: []Option{}}
		category, ok := pipeline.ParseCategory(mode)
		if !ok {
			return out, true, nil
		}
		for _, v := range c.snap.Trends.Domain(category) {
			out.Options = append(out.Options, Option{Label: v, Value: v})
		}
		if len(out.Options) > 0 {
			out.Style = styleBlock
		}
		return out, true, nil
	})
	if out.Options == nil {
		out = FilterOptions{Style: styleHidden, Options: []Option{}}
	}
	return out
}

// TrendsInput is the trends explorer's control state.
type TrendsInput struct {
	Selected   []string  `json:"line-chart-filter-selector.value"`
	FilterType string    `json:"line-chart-filter-type.value"`
	Toggles    []string  `json:"line-chart-overall-toggle.value"`
	Years      YearRange `json:"line-chart-year-slider.value"`
}

// UpdateTrends draws the yearly count lines chosen by the toggles and the
// category selection, restricted to the year range.
func (c *Controller) UpdateTrends(in TrendsInput) figure.Figure {
	return c.renderFigure(CallbackTrends, titleTrendsError, func() (figure.Figure, error) {
		return c.buildTrends(in), nil
	})
}

func (c *Controller) buildTrends(in TrendsInput) figure.Figure {
	trends := c.snap.Trends
	if trends.Empty() {
		return figure.Titled(titleTrendsNoData)
	}

	start, end := in.Years[0], in.Years[1]
	counts := trends.InRange(start, end)
	overall := trends.OverallInRange(start, end)

	ticks := make([]string, len(trends.Years))
	for i, y := range trends.Years {
		ticks[i] = strconv.Itoa(y)
	}
	fig := figure.New(figure.Layout{
		Title:    &figure.Title{Text: titleTrends},
		Template: templateWhite,
		Margin:   &figure.Margin{L: 40, R: 20, T: 60, B: 40},
		XAxis: &figure.Axis{
			Title:    &figure.Title{Text: "Year"},
			TickMode: "array",
			TickVals: trends.Years,
			TickText: ticks,
			Range:    []float64{float64(start) - 0.5, float64(end) + 0.5},
		},
		YAxis: &figure.Axis{Title: &figure.Title{Text: "Number of Earthquakes"}},
	})

	if slices.Contains(in.Toggles, ToggleOverall) && len(overall) > 0 {
		t := lineTrace("Overall", "lines", overall)
		t.Line = &figure.Line{Dash: "dot"}
		fig.Add(t)
	}

	for _, tc := range toggleCategories {
		if !slices.Contains(in.Toggles, tc.toggle) {
			continue
		}
		for _, v := range trends.Domain(tc.category) {
			fig.Add(lineTrace(v, "lines", pipeline.SumByYear(counts, tc.category, v)))
		}
	}

	if category, ok := pipeline.ParseCategory(in.FilterType); ok {
		for _, v := range in.Selected {
			series := pipeline.SumByYear(counts, category, v)
			if len(series) > 0 {
				fig.Add(lineTrace(v, "lines+markers", series))
			}
		}
	}

	if len(fig.Data) == 0 {
		fig.Layout.Title = &figure.Title{Text: titleTrendsNoOptions}
	}
	return fig
}

func lineTrace(name, mode string, series []pipeline.YearCount) figure.Trace {
	x := make([]int, len(series))
	y := make([]int, len(series))
	for i, yc := range series {
		x[i], y[i] = yc.Year, yc.Count
	}
	return figure.Trace{Type: figure.TypeScatter, Name: name, Mode: mode, X: x, Y: y}
}
