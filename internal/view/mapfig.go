package view

import (
	"fmt"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/figure"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

const (
	titleMapError = "Error updating map"

	hoverProvince   = "<b>%{location}</b><br>Average Magnitude: %{z:.2f}<br>"
	hoverPopulation = "Pop (2020): %{customdata[0]:,}<br>" +
		"Pop (2015): %{customdata[1]:,}<br>" +
		"Pop (2010): %{customdata[2]:,}<br>" +
		"Pop (2000): %{customdata[3]:,}<extra></extra>"
	hoverNoPopulation = "Population data unavailable<extra></extra>"
)

type mapKey struct {
	bucket int
	faults bool
}

// UpdateMap renders the province choropleth for a magnitude slider position,
// optionally overlaid with fault lines. An index outside the bucket table
// yields a figure titled "Error updating map".
func (c *Controller) UpdateMap(bucket int, showFaults bool) figure.Figure {
	return c.renderFigure(CallbackUpdateMap, titleMapError, func() (figure.Figure, error) {
		key := mapKey{bucket: bucket, faults: showFaults}
		if f, ok := c.mapCache.get(key); ok {
			c.cacheResult("map", true)
			return f, nil
		}
		c.cacheResult("map", false)

		f, err := c.buildMap(bucket, showFaults)
		if err != nil {
			return figure.Figure{}, err
		}
		c.mapCache.put(key, f)
		return f, nil
	})
}

func (c *Controller) buildMap(idx int, showFaults bool) (figure.Figure, error) {
	b, err := domain.BucketAt(idx)
	if err != nil {
		return figure.Figure{}, err
	}

	rows := pipeline.FilterAverages(c.snap.Map.Averages, b)
	if !b.All && len(rows) == 0 {
		return figure.Titled(fmt.Sprintf("No provinces with avg magnitude %s", b.Label)), nil
	}

	fig := figure.New(figure.Layout{
		Mapbox: &figure.Mapbox{
			Style:  domain.MapStyle,
			Center: domain.DefaultCenter,
			Zoom:   domain.DefaultZoom,
		},
		Margin:    figure.ZeroMargin(),
		ClickMode: "event+select",
	})

	switch {
	case c.snap.Provinces.Empty():
		c.logger.Warn("province polygons unavailable, map drawn without choropleth")
	case len(rows) == 0:
		// Only "All" reaches here empty. No trace; the axis keeps the fallback range.
		fig.Layout.ColorAxis = &figure.ColorAxis{
			ColorScale: figure.ScaleYlOrRd,
			CMin:       figure.Float(domain.FallbackColorRange[0]),
			CMax:       figure.Float(domain.FallbackColorRange[1]),
			ShowScale:  figure.Bool(false),
		}
	default:
		fig.Add(c.choropleth(rows, b))
	}

	if showFaults {
		fig.Add(c.faultTraces()...)
	}
	return fig, nil
}

func (c *Controller) choropleth(rows []pipeline.ProvinceMagnitude, b domain.Bucket) figure.Trace {
	locations := make([]string, len(rows))
	z := make([]float64, len(rows))
	for i, r := range rows {
		locations[i] = r.Province
		z[i] = r.Magnitude
	}

	t := figure.Trace{
		Type:         figure.TypeChoroplethMapbox,
		GeoJSON:      c.opts.ProvincesGeoJSONURL,
		FeatureIDKey: "properties." + c.snap.Provinces.KeyProperty,
		Locations:    locations,
		Z:            figure.Numbers(z),
		Marker: &figure.Marker{
			Opacity: figure.Float(0.7),
			Line:    &figure.Line{Width: 0.5},
		},
	}

	if b.All {
		lo, hi := domain.FallbackColorRange[0], domain.FallbackColorRange[1]
		if observedLo, observedHi, ok := c.snap.Map.MagnitudeRange(); ok {
			lo, hi = observedLo, observedHi
		}
		t.ColorScale = figure.ScaleYlOrRd
		t.ZMin, t.ZMax = figure.Float(lo), figure.Float(hi)
		t.ShowScale = figure.Bool(true)
		t.ColorBar = &figure.ColorBar{Title: &figure.Title{Text: "Avg Magnitude"}}
	} else {
		t.ColorScale = figure.SolidScale(b.Color())
		t.ZMin, t.ZMax = figure.Float(b.Low), figure.Float(b.High)
		t.ShowScale = figure.Bool(false)
	}

	t.HoverTemplate = hoverProvince + hoverNoPopulation
	if len(c.snap.Map.Population) > 0 {
		pop := c.snap.Map.PopulationIndex(c.snap.Matcher)
		t.CustomData = make([][]any, len(rows))
		for i, r := range rows {
			p := pop[c.snap.Matcher.Key(r.Province)].Population // zero when unmatched
			t.CustomData[i] = []any{p[0], p[1], p[2], p[3]}
		}
		t.HoverTemplate = hoverProvince + hoverPopulation
	}
	return t
}

// faultTraces draws one line trace per fault segment.
func (c *Controller) faultTraces() []figure.Trace {
	var traces []figure.Trace
	for _, f := range c.snap.Faults.Faults {
		for _, seg := range f.Segments() {
			lat := make([]float64, len(seg))
			lon := make([]float64, len(seg))
			for i, p := range seg {
				lon[i], lat[i] = p.Lon(), p.Lat()
			}
			traces = append(traces, figure.Trace{
				Type:       figure.TypeScatterMapbox,
				Mode:       "lines",
				Lat:        figure.Numbers(lat),
				Lon:        figure.Numbers(lon),
				Line:       &figure.Line{Width: 1, Color: "black"},
				ShowLegend: figure.Bool(false),
				HoverInfo:  "none",
			})
		}
	}
	return traces
}
