package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/quake-explorer-service/internal/export"
	"github.com/couchcryptid/quake-explorer-service/internal/view"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func handleProvincesGeoJSON(w http.ResponseWriter, _ *http.Request, c *view.Controller) {
	writeGeoJSON(w, c.Snapshot().Provinces.Features)
}

func handleFaultsGeoJSON(w http.ResponseWriter, _ *http.Request, c *view.Controller) {
	writeGeoJSON(w, c.Snapshot().Faults.Features)
}

func writeGeoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func (s *Server) handleCountsXLSX(w http.ResponseWriter, _ *http.Request, c *view.Controller) {
	snap := c.Snapshot()
	f, err := export.Workbook(snap)
	if err != nil {
		s.logger.Error("counts workbook failed", "snapshot_id", snap.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("counts workbook encode failed", "snapshot_id", snap.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="counts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// handleTrendsPNG renders the trends chart for query parameters mirroring the
// trends controls: start, end, toggle (repeatable), filter_type and selected
// (repeatable). Missing years default to the snapshot bounds and missing
// toggles to the overall line.
func (s *Server) handleTrendsPNG(w http.ResponseWriter, r *http.Request, c *view.Controller) {
	q := r.URL.Query()
	trends := c.Snapshot().Trends

	start, err := yearParam(q.Get("start"), trends.MinYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := yearParam(q.Get("end"), trends.MaxYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}
	toggles := q["toggle"]
	if len(toggles) == 0 && len(q["selected"]) == 0 {
		toggles = []string{view.ToggleOverall}
	}

	fig := c.UpdateTrends(view.TrendsInput{
		Selected:   q["selected"],
		FilterType: q.Get("filter_type"),
		Toggles:    toggles,
		Years:      view.YearRange{start, end},
	})

	var buf bytes.Buffer
	if err := export.TrendsPNG(&buf, fig, export.PNGWidth, export.PNGHeight); err != nil {
		if errors.Is(err, export.ErrNoSeries) {
			writeError(w, http.StatusNotFound, fig.Title())
			return
		}
		s.logger.Error("trends png failed", "error", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func yearParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
