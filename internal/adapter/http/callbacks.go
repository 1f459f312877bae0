package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/view"
)

const maxCallbackBody = 1 << 20

// callback declares one reactive computation. run decodes the inputs object
// and returns the outputs, or false for "no update".
type callback struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`

	run func(c *view.Controller, inputs json.RawMessage) (any, bool, error)
}

// callbacks is the explicit dispatch table for POST /api/v1/callbacks/{name}.
var callbacks = map[string]callback{
	view.CallbackUpdateMap: {
		Inputs:  []string{"magnitude-slider.value", "fault-toggle.value"},
		Outputs: []string{"earthquake-map.figure"},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in struct {
				Bucket     int  `json:"magnitude-slider.value"`
				ShowFaults bool `json:"fault-toggle.value"`
			}
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			return map[string]any{"earthquake-map.figure": c.UpdateMap(in.Bucket, in.ShowFaults)}, true, nil
		},
	},
	view.CallbackMapClick: {
		Inputs: []string{"earthquake-map.clickData"},
		Outputs: []string{
			"main-map-container.style", "main-controls.style", "detail-view-container.style",
			"back-button.style", "click-data.children", "province-title.children",
			"line-chart-filter-type.value", "line-chart-filter-selector.value",
		},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in struct {
				Click *view.ClickData `json:"earthquake-map.clickData"`
			}
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			out, ok := c.HandleMapClick(in.Click)
			return out, ok, nil
		},
	},
	view.CallbackGoBack: {
		Inputs: []string{"back-button.n_clicks"},
		Outputs: []string{
			"main-map-container.style", "main-controls.style", "detail-view-container.style",
			"back-button.style", "click-data.children", "line-chart-overall-toggle.value",
			"line-chart-filter-type.value", "line-chart-filter-selector.value", "line-chart-year-slider.value",
		},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in struct {
				NClicks *int `json:"back-button.n_clicks"`
			}
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			out, ok := c.GoBack(in.NClicks)
			return out, ok, nil
		},
	},
	view.CallbackBubbleMap: {
		Inputs:  []string{"click-data.children", "bubble-year-slider.value"},
		Outputs: []string{"bubble-map.figure"},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in struct {
				Province string         `json:"click-data.children"`
				Years    view.YearRange `json:"bubble-year-slider.value"`
			}
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			return map[string]any{"bubble-map.figure": c.UpdateBubbleMap(in.Province, in.Years)}, true, nil
		},
	},
	view.CallbackFilterOptions: {
		Inputs:  []string{"line-chart-filter-type.value"},
		Outputs: []string{"line-chart-filter-selector-container.style", "line-chart-filter-selector.options"},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in struct {
				Mode string `json:"line-chart-filter-type.value"`
			}
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			return c.UpdateFilterOptions(in.Mode), true, nil
		},
	},
	view.CallbackTrends: {
		Inputs: []string{
			"line-chart-filter-selector.value", "line-chart-filter-type.value",
			"line-chart-overall-toggle.value", "line-chart-year-slider.value",
		},
		Outputs: []string{"line-chart-graph.figure"},
		run: func(c *view.Controller, raw json.RawMessage) (any, bool, error) {
			var in view.TrendsInput
			if err := decodeInputs(raw, &in); err != nil {
				return nil, false, err
			}
			return map[string]any{"line-chart-graph.figure": c.UpdateTrends(in)}, true, nil
		},
	},
}

type callbackInfo struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func handleListCallbacks(w http.ResponseWriter, _ *http.Request) {
	list := make([]callbackInfo, 0, len(callbacks))
	for name, cb := range callbacks {
		list = append(list, callbackInfo{Name: name, Inputs: cb.Inputs, Outputs: cb.Outputs})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"callbacks": list})
}

type callbackRequest struct {
	Inputs json.RawMessage `json:"inputs"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request, c *view.Controller) {
	name := r.PathValue("name")
	cb, ok := callbacks[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown callback "+name)
		return
	}

	var req callbackRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCallbackBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, ok, err := cb.run(c, req.Inputs)
	if err != nil {
		s.logger.Warn("callback inputs rejected", "callback", name, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"outputs": out})
}

func decodeInputs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return eris.Wrap(err, "decode inputs")
	}
	return nil
}
