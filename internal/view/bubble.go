package view

import (
	"fmt"
	"math"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/figure"
)

const (
	titleBubbleError   = "Error loading bubble map"
	titleBubbleNoClick = "Click province on map first"

	templateWhite = "plotly_white"

	bubbleSizeMax = 15

	hoverBubble = "<b>%{hovertext}</b><br><br>" +
		"Magnitude=%{marker.color:.1f}<br>" +
		"Depth_In_Km=%{customdata[0]:.1f} km<br>" +
		"Date=%{customdata[1]}<br>" +
		"Province=%{customdata[2]}<extra></extra>"
)

// YearRange is an inclusive [start, end] pair as sent by range sliders.
type YearRange [2]int

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool { return year >= r[0] && year <= r[1] }

type bubbleKey struct {
	province string
	years    YearRange
}

// UpdateBubbleMap plots every event tagged with the selected province whose
// date falls in the year range, sized and colored by magnitude.
func (c *Controller) UpdateBubbleMap(province string, years YearRange) figure.Figure {
	return c.renderFigure(CallbackBubbleMap, titleBubbleError, func() (figure.Figure, error) {
		if province == "" {
			f := figure.Titled(titleBubbleNoClick)
			f.Layout.Template = templateWhite
			return f, nil
		}

		key := bubbleKey{province: c.snap.Matcher.Key(province), years: years}
		if f, ok := c.bubbleCache.get(key); ok {
			c.cacheResult("bubble", true)
			return f, nil
		}
		c.cacheResult("bubble", false)

		f := c.buildBubble(province, years)
		c.bubbleCache.put(key, f)
		return f, nil
	})
}

func (c *Controller) buildBubble(province string, years YearRange) figure.Figure {
	var (
		lat, lon, mag []float64
		names         []string
		custom        [][]any
	)
	for _, e := range c.snap.Events.Rows {
		if !e.HasDate() || !years.Contains(e.Year()) || !e.HasCoords() {
			continue
		}
		if !c.snap.Matcher.Equal(e.Province, province) {
			continue
		}
		lat = append(lat, e.Latitude)
		lon = append(lon, e.Longitude)
		mag = append(mag, e.Magnitude)
		names = append(names, e.Location)
		custom = append(custom, []any{figure.Number(e.DepthKm), e.Date.Format("2006-01-02"), e.Province})
	}

	if len(lat) == 0 {
		f := figure.Titled(fmt.Sprintf("No Bubble Data (%d-%d) for %s", years[0], years[1], province))
		f.Layout.Template = templateWhite
		return f
	}

	center, zoom := domain.DefaultCenter, domain.CountryZoom
	if p, ok := c.snap.Provinces.Lookup(province, c.snap.Matcher); ok && p.Geometry != nil {
		center, zoom = p.Center(), domain.ProvinceZoom
	}

	f := figure.New(figure.Layout{
		Mapbox:    &figure.Mapbox{Style: domain.MapStyle, Center: center, Zoom: zoom},
		Margin:    figure.ZeroMargin(),
		ColorAxis: &figure.ColorAxis{ColorScale: figure.ScaleReds, ColorBar: &figure.ColorBar{Title: &figure.Title{Text: "Magnitude"}}},
	})
	f.Add(figure.Trace{
		Type: figure.TypeScatterMapbox,
		Mode: "markers",
		Lat:  figure.Numbers(lat),
		Lon:  figure.Numbers(lon),
		Marker: &figure.Marker{
			Size:      figure.Numbers(mag),
			SizeMode:  "area",
			SizeRef:   sizeRef(mag, bubbleSizeMax),
			Color:     figure.Numbers(mag),
			ColorAxis: "coloraxis",
		},
		HoverText:     names,
		CustomData:    custom,
		HoverTemplate: hoverBubble,
		ShowLegend:    figure.Bool(false),
	})
	return f
}

// sizeRef scales area-sized markers so the largest value renders at sizeMax pixels.
func sizeRef(sizes []float64, sizeMax float64) float64 {
	peak := 0.0
	for _, s := range sizes {
		if !math.IsNaN(s) && s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return 1
	}
	return 2 * peak / (sizeMax * sizeMax)
}
