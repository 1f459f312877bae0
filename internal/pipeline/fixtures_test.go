package pipeline_test

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

var allColumns = []string{
	domain.ColDate, domain.ColLatitude, domain.ColLongitude, domain.ColMagnitude, domain.ColDepth,
	domain.ColLocation, domain.ColProvince, domain.ColRegion, domain.ColIslandGroup,
	"2020", "2015", "2010", "2000",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

// testProvinces: Batanes covers lon 121-122 / lat 20-21, Cagayan lon 121-122 / lat 17-19.
func testProvinces() *domain.ProvinceSet {
	return &domain.ProvinceSet{
		KeyProperty: "adm2_en",
		Provinces: []domain.Province{
			domain.NewProvince("Batanes", square(121, 20, 122, 21)),
			domain.NewProvince("Cagayan", square(121, 17, 122, 19)),
		},
	}
}

type eventOpt func(*domain.Event)

func withPopulation(p2020, p2015, p2010, p2000 string) eventOpt {
	return func(e *domain.Event) { e.Population = [4]string{p2020, p2015, p2010, p2000} }
}

func withoutDate() eventOpt {
	return func(e *domain.Event) { e.Date = time.Time{} }
}

func withTags(province, region, island string) eventOpt {
	return func(e *domain.Event) { e.Province, e.Region, e.IslandGroup = province, region, island }
}

func event(date string, lat, lon, mag float64, opts ...eventOpt) domain.Event {
	e := domain.Event{
		Latitude:    lat,
		Longitude:   lon,
		Magnitude:   mag,
		DepthKm:     10,
		Location:    "somewhere",
		Province:    "Batanes",
		Region:      "Region II",
		IslandGroup: "Luzon",
	}
	if t, ok := domain.ParseDate(date); ok {
		e.Date = t
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func table(rows ...domain.Event) *domain.EventTable {
	return domain.NewEventTable(allColumns, rows)
}

func tableWithout(drop string, rows ...domain.Event) *domain.EventTable {
	cols := make([]string, 0, len(allColumns))
	for _, c := range allColumns {
		if c != drop {
			cols = append(cols, c)
		}
	}
	return domain.NewEventTable(cols, rows)
}

var nan = math.NaN()
