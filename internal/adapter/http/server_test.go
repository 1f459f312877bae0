package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	httpadapter "github.com/couchcryptid/quake-explorer-service/internal/adapter/http"
	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
	"github.com/couchcryptid/quake-explorer-service/internal/view"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *pipeline.Snapshot {
	polygon := orb.Polygon{orb.Ring{{121, 17}, {122, 17}, {122, 19}, {121, 19}, {121, 17}}}
	feature := geojson.NewFeature(polygon)
	feature.Properties["adm2_en"] = "Cagayan"
	fc := geojson.NewFeatureCollection().Append(feature)

	event := func(date string, mag float64) domain.Event {
		e := domain.Event{Latitude: 18, Longitude: 121.5, Magnitude: mag, Location: "Cagayan", Province: "Cagayan", Region: "Region II", IslandGroup: "Luzon"}
		e.Date, _ = domain.ParseDate(date)
		return e
	}
	columns := []string{
		domain.ColDate, domain.ColLatitude, domain.ColLongitude, domain.ColMagnitude,
		domain.ColProvince, domain.ColRegion, domain.ColIslandGroup,
	}
	src := domain.Sources{
		Provinces: &domain.ProvinceSet{
			KeyProperty: "adm2_en",
			Provinces:   []domain.Province{domain.NewProvince("Cagayan", polygon)},
			Features:    fc,
		},
		Faults: domain.EmptyFaultSet(),
		Events: domain.NewEventTable(columns, []domain.Event{
			event("2019-03-01", 3.0),
			event("2020-05-01", 3.5),
		}),
		Status: domain.StatusOK,
	}
	return pipeline.NewSnapshot(src, domain.CanonicalNames, discardLogger())
}

func newTestServer(readyErr error, opts httpadapter.Options) *httpadapter.Server {
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, opts, discardLogger())
	ctrl := view.NewController(testSnapshot(), view.Options{ProvincesGeoJSONURL: "/api/v1/geo/provinces.geojson", CacheSize: 8},
		discardLogger(), observability.NewMetricsForTesting())
	srv.SetController(ctrl)
	return srv
}

func do(srv http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(fmt.Errorf("not ready yet"), httpadapter.Options{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIUnavailableBeforeSnapshot(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, httpadapter.Options{}, discardLogger())

	rec := do(srv, http.MethodGet, "/api/v1/layout", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLayout(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/api/v1/layout", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		MinYear int   `json:"min_year"`
		MaxYear int   `json:"max_year"`
		Years   []int `json:"years"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2019, body.MinYear)
	assert.Equal(t, 2020, body.MaxYear)
	assert.Equal(t, []int{2019, 2020}, body.Years)
}

func TestListCallbacks(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/api/v1/callbacks", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Callbacks []struct {
			Name    string   `json:"name"`
			Outputs []string `json:"outputs"`
		} `json:"callbacks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Callbacks, 6)
	assert.Equal(t, "go_back", body.Callbacks[0].Name)
}

func TestCallback_UpdateMap(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodPost, "/api/v1/callbacks/update_map",
		`{"inputs":{"magnitude-slider.value":0,"fault-toggle.value":false}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Outputs map[string]struct {
			Data []struct {
				Type      string   `json:"type"`
				Locations []string `json:"locations"`
			} `json:"data"`
		} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fig := body.Outputs["earthquake-map.figure"]
	require.Len(t, fig.Data, 1)
	assert.Equal(t, "choroplethmapbox", fig.Data[0].Type)
	assert.Equal(t, []string{"Cagayan"}, fig.Data[0].Locations)
}

func TestCallback_MapClickAndNoUpdate(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Options{})

	rec := do(srv, http.MethodPost, "/api/v1/callbacks/handle_map_click",
		`{"inputs":{"earthquake-map.clickData":{"points":[{"location":"Cagayan"}]}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"province-title.children":"Details for: Cagayan"`)
	assert.Contains(t, rec.Body.String(), `"line-chart-filter-selector.value":["Cagayan"]`)

	rec = do(srv, http.MethodPost, "/api/v1/callbacks/handle_map_click", `{"inputs":{"earthquake-map.clickData":null}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec = do(srv, http.MethodPost, "/api/v1/callbacks/go_back", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCallback_Errors(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Options{})

	rec := do(srv, http.MethodPost, "/api/v1/callbacks/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, http.MethodPost, "/api/v1/callbacks/update_map", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodPost, "/api/v1/callbacks/update_map", `{"inputs":{"magnitude-slider.value":"three"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodGet, "/api/v1/callbacks/update_map", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCallback_InvalidBucketIsADiagnosticFigure(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodPost, "/api/v1/callbacks/update_map",
		`{"inputs":{"magnitude-slider.value":42}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error updating map")
}

func TestGeoJSON(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/api/v1/geo/provinces.geojson", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Cagayan", fc.Features[0].Properties["adm2_en"])

	rec = do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/api/v1/geo/faults.geojson", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, rec.Body.String())
}

func TestExportCountsXLSX(t *testing.T) {
	rec := do(newTestServer(nil, httpadapter.Options{}), http.MethodGet, "/api/v1/export/counts.xlsx", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "counts.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	rows, err := f.GetRows("Counts")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportTrendsPNG(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Options{})

	rec := do(srv, http.MethodGet, "/api/v1/export/trends.png?start=2019&end=2020&toggle=overall_regions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)

	rec = do(srv, http.MethodGet, "/api/v1/export/trends.png?start=1990&end=1991", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select options or adjust year range")

	rec = do(srv, http.MethodGet, "/api/v1/export/trends.png?start=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Options{CORSAllowedOrigins: []string{"https://dash.example.ph"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/callbacks/update_map", nil)
	req.Header.Set("Origin", "https://dash.example.ph")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "https://dash.example.ph", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/v1/callbacks", "").Code)

	rec := do(srv, http.MethodGet, "/api/v1/callbacks", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code, "health checks are not limited")
}
