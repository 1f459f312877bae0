package view

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

const testGeoURL = "/api/v1/geo/provinces.geojson"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func quake(date string, lat, lon, mag float64, province, region, island string, pop ...string) domain.Event {
	e := domain.Event{
		Latitude: lat, Longitude: lon, Magnitude: mag, DepthKm: 12.5,
		Location: province + " offshore", Province: province, Region: region, IslandGroup: island,
	}
	if t, ok := domain.ParseDate(date); ok {
		e.Date = t
	}
	copy(e.Population[:], pop)
	return e
}

// testSources: Batanes averages 4.2 but carries no region, so it is absent from
// the trends categories; Cagayan averages 3.25; Leyte lies outside every polygon.
func testSources() domain.Sources {
	provinces := &domain.ProvinceSet{
		KeyProperty: "adm2_en",
		Provinces: []domain.Province{
			domain.NewProvince("Batanes", square(121, 20, 122, 21)),
			domain.NewProvince("Cagayan", square(121, 17, 122, 19)),
		},
	}
	faults := &domain.FaultSet{Faults: []domain.Fault{
		{CatalogName: "Philippines", Geometry: orb.LineString{{121, 15}, {122, 16}}},
		{CatalogName: "Philippines", Geometry: orb.MultiLineString{{{120, 10}, {121, 11}}, {{122, 12}, {123, 13}}}},
	}}
	columns := []string{
		domain.ColDate, domain.ColLatitude, domain.ColLongitude, domain.ColMagnitude, domain.ColDepth,
		domain.ColLocation, domain.ColProvince, domain.ColRegion, domain.ColIslandGroup,
		"2020", "2015", "2010", "2000",
	}
	events := domain.NewEventTable(columns, []domain.Event{
		quake("2019-07-27", 20.5, 121.5, 4.0, "Batanes", "", "Luzon", "18,831", "17,246", "16,604", "16,467"),
		quake("2020-01-03", 20.6, 121.6, 4.4, "Batanes", "", "Luzon"),
		quake("2019-03-01", 18.0, 121.5, 3.0, "Cagayan", "Region II", "Luzon"),
		quake("2020-05-01", 18.2, 121.4, 3.5, "Cagayan", "Region II", "Luzon"),
		quake("2020-06-01", 10.0, 125.0, 5.0, "Leyte", "Region VIII", "Visayas"),
	})
	return domain.Sources{Provinces: provinces, Faults: faults, Events: events, Status: domain.StatusOK}
}

func testSnapshot() *pipeline.Snapshot {
	return pipeline.NewSnapshot(testSources(), domain.CanonicalNames, discardLogger())
}

func newTestController(t *testing.T, snap *pipeline.Snapshot) (*Controller, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	c := NewController(snap, Options{ProvincesGeoJSONURL: testGeoURL, CacheSize: 16}, discardLogger(), metrics)
	return c, metrics
}

func freezeYear(t *testing.T, year int) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(year, 1, 15, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}
