package view

import (
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Style is a container's inline CSS display value.
type Style struct {
	Display string `json:"display"`
}

var (
	styleHidden = Style{Display: "none"}
	styleBlock  = Style{Display: "block"}
	styleFlex   = Style{Display: "flex"}
)

// ClickData is the map's click event payload.
type ClickData struct {
	Points []ClickPoint `json:"points"`
}

// ClickPoint is one clicked shape.
type ClickPoint struct {
	Location string `json:"location"`
}

// ClickOutputs moves the page from the main map to the detail view.
type ClickOutputs struct {
	MainMap        Style    `json:"main-map-container.style"`
	MainControls   Style    `json:"main-controls.style"`
	DetailView     Style    `json:"detail-view-container.style"`
	BackButton     Style    `json:"back-button.style"`
	Selection      string   `json:"click-data.children"`
	ProvinceTitle  string   `json:"province-title.children"`
	FilterType     string   `json:"line-chart-filter-type.value"`
	FilterSelector []string `json:"line-chart-filter-selector.value"`
}

// BackOutputs restores the main map and resets the trends controls.
type BackOutputs struct {
	MainMap        Style     `json:"main-map-container.style"`
	MainControls   Style     `json:"main-controls.style"`
	DetailView     Style     `json:"detail-view-container.style"`
	BackButton     Style     `json:"back-button.style"`
	Selection      *string   `json:"click-data.children"`
	OverallToggle  []string  `json:"line-chart-overall-toggle.value"`
	FilterType     *string   `json:"line-chart-filter-type.value"`
	FilterSelector []string  `json:"line-chart-filter-selector.value"`
	YearSlider     YearRange `json:"line-chart-year-slider.value"`
}

// HandleMapClick enters the detail view for the clicked province. It returns
// false, meaning no output changes, when the click carries no location.
// The province is pre-selected in the trends filter only when it is one of
// the known trend categories.
func (c *Controller) HandleMapClick(click *ClickData) (ClickOutputs, bool) {
	return transition(c, CallbackMapClick, func() (ClickOutputs, bool, error) {
		if click == nil || len(click.Points) == 0 {
			return ClickOutputs{}, false, nil
		}
		key := click.Points[0].Location
		if key == "" {
			return ClickOutputs{}, false, nil
		}

		selector := []string{}
		if match, ok := c.snap.Matcher.Find(key, c.snap.Trends.Provinces); ok {
			selector = []string{match}
		} else {
			c.logger.Warn("clicked province is not a trends category, filter left empty", "province", key)
		}

		return ClickOutputs{
			MainMap:        styleHidden,
			MainControls:   styleHidden,
			DetailView:     styleFlex,
			BackButton:     styleBlock,
			Selection:      key,
			ProvinceTitle:  "Details for: " + key,
			FilterType:     string(pipeline.CategoryProvince),
			FilterSelector: selector,
		}, true, nil
	})
}

// GoBack returns to the main map. nClicks is the back button's click count;
// nil means the button has never been pressed and nothing changes.
func (c *Controller) GoBack(nClicks *int) (BackOutputs, bool) {
	return transition(c, CallbackGoBack, func() (BackOutputs, bool, error) {
		if nClicks == nil {
			return BackOutputs{}, false, nil
		}
		return BackOutputs{
			MainMap:        styleBlock,
			MainControls:   styleBlock,
			DetailView:     styleHidden,
			BackButton:     styleHidden,
			Selection:      nil,
			OverallToggle:  []string{ToggleOverall},
			FilterType:     nil,
			FilterSelector: []string{},
			YearSlider:     YearRange{c.snap.Trends.MinYear, c.snap.Trends.MaxYear},
		}, true, nil
	})
}
