// Package figure defines the plotly-compatible JSON documents returned by the
// view callbacks. Only the attributes the explorer sets are modelled.
package figure

import (
	"math"
	"strconv"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// Figure is a plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// New returns a figure with no traces.
func New(layout Layout) Figure {
	return Figure{Data: []Trace{}, Layout: layout}
}

// Titled returns an empty figure whose only content is its title. Every
// placeholder and diagnostic state is rendered this way.
func Titled(title string) Figure {
	return New(Layout{Title: &Title{Text: title}})
}

// Title returns the layout title text, or "" when unset.
func (f Figure) Title() string {
	if f.Layout.Title == nil {
		return ""
	}
	return f.Layout.Title.Text
}

// Add appends traces.
func (f *Figure) Add(traces ...Trace) {
	f.Data = append(f.Data, traces...)
}

// Title is a layout, axis or colorbar title.
type Title struct {
	Text string `json:"text"`
}

// Layout is the subset of plotly layout attributes used by the explorer.
type Layout struct {
	Title     *Title     `json:"title,omitempty"`
	Template  string     `json:"template,omitempty"`
	Mapbox    *Mapbox    `json:"mapbox,omitempty"`
	Margin    *Margin    `json:"margin,omitempty"`
	ClickMode string     `json:"clickmode,omitempty"`
	ColorAxis *ColorAxis `json:"coloraxis,omitempty"`
	XAxis     *Axis      `json:"xaxis,omitempty"`
	YAxis     *Axis      `json:"yaxis,omitempty"`
}

// Mapbox positions the base map.
type Mapbox struct {
	Style  string        `json:"style"`
	Center domain.LatLon `json:"center"`
	Zoom   float64       `json:"zoom"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	R int `json:"r"`
	T int `json:"t"`
	L int `json:"l"`
	B int `json:"b"`
}

// ZeroMargin removes all plot margins.
func ZeroMargin() *Margin { return &Margin{} }

// ColorAxis is a shared continuous color scale.
type ColorAxis struct {
	ColorScale any       `json:"colorscale,omitempty"`
	CMin       *float64  `json:"cmin,omitempty"`
	CMax       *float64  `json:"cmax,omitempty"`
	ShowScale  *bool     `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

// ColorBar labels a color scale.
type ColorBar struct {
	Title *Title `json:"title,omitempty"`
}

// Axis is a cartesian axis.
type Axis struct {
	Title    *Title    `json:"title,omitempty"`
	TickMode string    `json:"tickmode,omitempty"`
	TickVals []int     `json:"tickvals,omitempty"`
	TickText []string  `json:"ticktext,omitempty"`
	Range    []float64 `json:"range,omitempty"`
}

// Trace types.
const (
	TypeChoroplethMapbox = "choroplethmapbox"
	TypeScatterMapbox    = "scattermapbox"
	TypeScatter          = "scatter"
)

// Trace is one plotly trace. Which fields apply depends on Type.
type Trace struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Mode string `json:"mode,omitempty"`

	// choroplethmapbox
	GeoJSON      string   `json:"geojson,omitempty"`
	FeatureIDKey string   `json:"featureidkey,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	Z            []Number `json:"z,omitempty"`
	ZMin         *float64 `json:"zmin,omitempty"`
	ZMax         *float64 `json:"zmax,omitempty"`

	ColorScale any       `json:"colorscale,omitempty"`
	ColorAxis  string    `json:"coloraxis,omitempty"`
	ShowScale  *bool     `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`

	// scattermapbox
	Lat []Number `json:"lat,omitempty"`
	Lon []Number `json:"lon,omitempty"`

	// scatter
	X []int `json:"x,omitempty"`
	Y []int `json:"y,omitempty"`

	CustomData    [][]any  `json:"customdata,omitempty"`
	HoverText     []string `json:"hovertext,omitempty"`
	HoverTemplate string   `json:"hovertemplate,omitempty"`
	HoverInfo     string   `json:"hoverinfo,omitempty"`

	Marker     *Marker `json:"marker,omitempty"`
	Line       *Line   `json:"line,omitempty"`
	ShowLegend *bool   `json:"showlegend,omitempty"`
}

// Marker styles points or choropleth shapes.
type Marker struct {
	Opacity   *float64 `json:"opacity,omitempty"`
	Line      *Line    `json:"line,omitempty"`
	Size      []Number `json:"size,omitempty"`
	SizeMode  string   `json:"sizemode,omitempty"`
	SizeRef   float64  `json:"sizeref,omitempty"`
	Color     []Number `json:"color,omitempty"`
	ColorAxis string   `json:"coloraxis,omitempty"`
}

// Line styles a line or an outline.
type Line struct {
	Width float64 `json:"width,omitempty"`
	Color string  `json:"color,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Named plotly color scales.
const (
	ScaleYlOrRd = "YlOrRd"
	ScaleReds   = "Reds"
)

// SolidScale is a two-stop color scale painting every value the same color.
func SolidScale(color string) [][2]any {
	return [][2]any{{0, color}, {1, color}}
}

// Number is a float that encodes NaN and infinities as JSON null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// Numbers converts a float slice.
func Numbers(vals []float64) []Number {
	out := make([]Number, len(vals))
	for i, v := range vals {
		out[i] = Number(v)
	}
	return out
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
