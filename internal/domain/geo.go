package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Province is one administrative polygon keyed by its name attribute.
type Province struct {
	Name     string
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
	Bound    orb.Bound
}

// NewProvince wraps a polygonal geometry and precomputes its bounding box.
func NewProvince(name string, g orb.Geometry) Province {
	p := Province{Name: name, Geometry: g}
	if g != nil {
		p.Bound = g.Bound()
	}
	return p
}

// Intersects reports whether pt lies inside or on the boundary of the province.
func (p Province) Intersects(pt orb.Point) bool {
	if p.Geometry == nil || !p.Bound.Contains(pt) {
		return false
	}
	switch g := p.Geometry.(type) {
	case orb.Polygon:
		return polygonIntersects(g, pt)
	case orb.MultiPolygon:
		for _, poly := range g {
			if polygonIntersects(poly, pt) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// polygonIntersects is planar.PolygonContains with hole edges counted as
// part of the polygon.
func polygonIntersects(poly orb.Polygon, pt orb.Point) bool {
	if len(poly) == 0 || !planar.RingContains(poly[0], pt) {
		return false
	}
	for _, hole := range poly[1:] {
		if planar.RingContains(hole, pt) && !onRing(hole, pt) {
			return false
		}
	}
	return true
}

func onRing(r orb.Ring, pt orb.Point) bool {
	for i := 1; i < len(r); i++ {
		if planar.DistanceFromSegmentSquared(r[i-1], r[i], pt) == 0 {
			return true
		}
	}
	return false
}

// Center returns the midpoint of the province bounding box.
func (p Province) Center() LatLon {
	c := p.Bound.Center()
	return LatLon{Lat: c.Lat(), Lon: c.Lon()}
}

// ProvinceSet is the loaded polygon collection.
type ProvinceSet struct {
	// KeyProperty is the feature attribute holding the province name key.
	KeyProperty string
	Provinces   []Province
	// Features is the source collection, served unchanged to map front-ends.
	Features *geojson.FeatureCollection
}

// EmptyProvinceSet returns a set with no provinces.
func EmptyProvinceSet(keyProperty string) *ProvinceSet {
	return &ProvinceSet{KeyProperty: keyProperty, Features: geojson.NewFeatureCollection()}
}

// Len returns the number of provinces.
func (s *ProvinceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Provinces)
}

// Empty reports whether the set has no provinces.
func (s *ProvinceSet) Empty() bool { return s.Len() == 0 }

// Lookup returns the first province whose name matches under m.
func (s *ProvinceSet) Lookup(name string, m NameMatcher) (Province, bool) {
	if s == nil {
		return Province{}, false
	}
	key := m.Key(name)
	for _, p := range s.Provinces {
		if m.Key(p.Name) == key {
			return p, true
		}
	}
	return Province{}, false
}

// Fault is one active-fault trace.
type Fault struct {
	CatalogName string
	Geometry    orb.Geometry // orb.LineString or orb.MultiLineString
}

// Segments decomposes the fault into its individual line strings, dropping empty parts.
func (f Fault) Segments() []orb.LineString {
	var parts []orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		parts = []orb.LineString{g}
	case orb.MultiLineString:
		parts = g
	default:
		return nil
	}
	out := make([]orb.LineString, 0, len(parts))
	for _, ls := range parts {
		if len(ls) > 0 {
			out = append(out, ls)
		}
	}
	return out
}

// FaultSet is the loaded fault collection after the country filter.
type FaultSet struct {
	Faults   []Fault
	Features *geojson.FeatureCollection
}

// EmptyFaultSet returns a set with no faults.
func EmptyFaultSet() *FaultSet {
	return &FaultSet{Features: geojson.NewFeatureCollection()}
}

// Len returns the number of faults.
func (s *FaultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Faults)
}

// Empty reports whether the set has no faults.
func (s *FaultSet) Empty() bool { return s.Len() == 0 }
