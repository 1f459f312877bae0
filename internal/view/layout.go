package view

import (
	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Layout describes the page controls a front-end needs to render before the
// first callback: slider marks, year bounds, option sets and initial values.
type Layout struct {
	SnapshotID   string        `json:"snapshot_id"`
	SourceStatus domain.Status `json:"source_status"`
	MapStatus    domain.Status `json:"map_status"`
	TrendsStatus domain.Status `json:"trends_status"`

	MagnitudeBuckets []domain.Bucket `json:"magnitude_buckets"`
	MinYear          int             `json:"min_year"`
	MaxYear          int             `json:"max_year"`
	Years            []int           `json:"years"`
	OverallToggles   []Option        `json:"overall_toggles"`
	FilterTypes      []Option        `json:"filter_types"`

	// Initial maps "<component-id>.<property>" to its starting value.
	Initial map[string]any `json:"initial"`
}

// Layout returns the control descriptor for the current snapshot.
func (c *Controller) Layout() Layout {
	t := c.snap.Trends

	filterTypes := make([]Option, len(pipeline.Categories))
	for i, cat := range pipeline.Categories {
		filterTypes[i] = Option{Label: string(cat), Value: string(cat)}
	}

	return Layout{
		SnapshotID:       c.snap.ID,
		SourceStatus:     c.snap.SourceStatus,
		MapStatus:        c.snap.Map.Status,
		TrendsStatus:     t.Status,
		MagnitudeBuckets: domain.Buckets(),
		MinYear:          t.MinYear,
		MaxYear:          t.MaxYear,
		Years:            t.Years,
		OverallToggles: []Option{
			{Label: "Overall Earthquakes", Value: ToggleOverall},
			{Label: "Overall Provinces", Value: ToggleProvinces},
			{Label: "Overall Regions", Value: ToggleRegions},
			{Label: "Overall Island Groups", Value: ToggleIslandGroups},
		},
		FilterTypes: filterTypes,
		Initial: map[string]any{
			"magnitude-slider.value":                     0,
			"fault-toggle.value":                         true,
			"main-map-container.style":                   styleBlock,
			"main-controls.style":                        styleBlock,
			"detail-view-container.style":                styleHidden,
			"back-button.style":                          styleHidden,
			"bubble-year-slider.value":                   YearRange{t.MinYear, t.MaxYear},
			"line-chart-year-slider.value":               YearRange{t.MinYear, t.MaxYear},
			"line-chart-overall-toggle.value":            []string{ToggleOverall},
			"line-chart-filter-type.value":               nil,
			"line-chart-filter-selector.value":           []string{},
			"line-chart-filter-selector-container.style": styleHidden,
		},
	}
}
