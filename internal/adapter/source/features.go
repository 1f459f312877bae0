package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// ReadFeatures reads a vector file into a feature collection. ".shp" files go
// through the shapefile reader; anything else is parsed as GeoJSON.
func ReadFeatures(path string) (*geojson.FeatureCollection, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return ReadShapefile(path)
	}
	return ReadGeoJSON(path)
}

// ReadGeoJSON parses a GeoJSON FeatureCollection file.
func ReadGeoJSON(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read geojson %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "parse geojson %s", path)
	}
	return fc, nil
}

// ReadShapefile converts a shapefile and its .dbf attributes into a feature
// collection. Polygons become orb.Polygon/MultiPolygon, polylines become
// orb.LineString/MultiLineString; other shape types are skipped.
func ReadShapefile(path string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := geojson.NewFeatureCollection()
	records := 0
	for reader.Next() {
		records++
		_, shape := reader.Shape()
		g := shapeGeometry(shape)
		if g == nil {
			continue
		}
		feature := geojson.NewFeature(g)
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				feature.Properties[name] = val
			}
		}
		fc.Append(feature)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "read shapefile %s", path)
	}
	// Err ignores an EOF on a record boundary; the .dbf row count catches it.
	if want := reader.AttributeCount(); want > 0 && records != want {
		return nil, eris.Errorf("read shapefile %s: %d of %d records", path, records, want)
	}
	return fc, nil
}

func shapeGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Polygon:
		return polygonGeometry(shapeParts(s.Parts, s.Points))
	case *shp.PolyLine:
		return lineGeometry(shapeParts(s.Parts, s.Points))
	default:
		return nil
	}
}

// shapeParts splits a flat point list at the part offsets.
func shapeParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

// polygonGeometry groups shapefile rings into polygons: clockwise rings start a
// new polygon, counter-clockwise rings are holes of the preceding one.
func polygonGeometry(parts [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, part := range parts {
		ring := orb.Ring(part)
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	default:
		return mp
	}
}

func lineGeometry(parts [][]orb.Point) orb.Geometry {
	var mls orb.MultiLineString
	for _, part := range parts {
		if len(part) < 2 {
			continue
		}
		mls = append(mls, orb.LineString(part))
	}
	switch len(mls) {
	case 0:
		return nil
	case 1:
		return mls[0]
	default:
		return mls
	}
}
