package domain

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrInvalidBucket is returned for a magnitude slider index outside the bucket table.
var ErrInvalidBucket = eris.New("invalid magnitude bucket")

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Map defaults.
var DefaultCenter = LatLon{Lat: 12.8797, Lon: 121.7740}

const (
	DefaultZoom  = 4.5
	ProvinceZoom = 7.0 // bubble map centred on a known province polygon
	CountryZoom  = 6.0 // bubble map fallback when the polygon is unknown

	MapStyle = "carto-positron"

	// FallbackColor paints a bucket that has no entry in the palette.
	FallbackColor = "#CCCCCC"
)

// FallbackColorRange is the choropleth range used when no province has a valid average.
var FallbackColorRange = [2]float64{1, 5}

// DefaultMinYear is the lower year bound used when no event has a usable date.
const DefaultMinYear = 2000

// DefaultMaxYear is the upper year bound used when no event has a usable date.
func DefaultMaxYear() int { return clock.Now().Year() }

// DefaultYears returns every year between the default bounds, inclusive.
func DefaultYears() []int {
	maxYear := DefaultMaxYear()
	years := make([]int, 0, maxYear-DefaultMinYear+1)
	for y := DefaultMinYear; y <= maxYear; y++ {
		years = append(years, y)
	}
	return years
}

// Bucket is one position of the magnitude slider.
type Bucket struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	All   bool    `json:"all"`
	Low   float64 `json:"low,omitempty"`
	High  float64 `json:"high,omitempty"`
}

var bucketLabels = []string{
	"All", "Micro (1.0-1.9)", "Minor (2.0–2.9)", "Minor (3.0-3.9)", "Light (4.0–4.9)",
	"Moderate (5.0–5.9)", "Strong (6.0–6.9)", "Major (7.0–7.9)", "Great (8.0-8.9)",
}

var bucketRanges = [][2]float64{
	{}, {1.0, 1.9}, {2.0, 2.9}, {3.0, 3.9}, {4.0, 4.9},
	{5.0, 5.9}, {6.0, 6.9}, {7.0, 7.9}, {8.0, 8.9},
}

var bucketColors = []string{"#FFE500", "#FFC400", "#FFA400", "#FF8300", "#FF6200", "#FF4100", "#FF2100", "#FF0000"}

// BucketCount is the number of slider positions, including "All".
var BucketCount = len(bucketRanges)

// BucketAt returns the bucket for a slider index.
func BucketAt(idx int) (Bucket, error) {
	if idx < 0 || idx >= len(bucketRanges) {
		return Bucket{}, eris.Wrapf(ErrInvalidBucket, "index %d outside [0, %d)", idx, len(bucketRanges))
	}
	if idx == 0 {
		return Bucket{Index: 0, Label: bucketLabels[0], All: true}, nil
	}
	r := bucketRanges[idx]
	return Bucket{Index: idx, Label: bucketLabels[idx], Low: r[0], High: r[1]}, nil
}

// Buckets returns every slider position in order.
func Buckets() []Bucket {
	out := make([]Bucket, 0, len(bucketRanges))
	for i := range bucketRanges {
		b, _ := BucketAt(i)
		out = append(out, b)
	}
	return out
}

// Contains reports whether m lies in the closed range [Low, High]. "All" contains
// every value, NaN excluded.
func (b Bucket) Contains(m float64) bool {
	if math.IsNaN(m) {
		return false
	}
	if b.All {
		return true
	}
	return m >= b.Low && m <= b.High
}

// Color returns the fixed fill color for a ranged bucket.
func (b Bucket) Color() string {
	i := b.Index - 1
	if i >= 0 && i < len(bucketColors) {
		return bucketColors[i]
	}
	return FallbackColor
}
