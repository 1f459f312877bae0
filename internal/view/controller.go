// Package view derives chart figures and navigation state from the immutable
// snapshot and the current control values. Every exported handler is safe for
// concurrent use and never returns an error or panics: failures become a
// titled diagnostic figure, or "no update" for navigation.
package view

import (
	"log/slog"
	"time"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/figure"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// Callback names.
const (
	CallbackUpdateMap     = "update_map"
	CallbackMapClick      = "handle_map_click"
	CallbackGoBack        = "go_back"
	CallbackBubbleMap     = "update_bubble_map"
	CallbackFilterOptions = "update_filter_options"
	CallbackTrends        = "update_trends"
)

// Callback outcomes recorded in metrics.
const (
	outcomeOK         = "ok"
	outcomeNoUpdate   = "no_update"
	outcomeDiagnostic = "diagnostic"
	outcomeError      = "error"
)

// Options configures a Controller.
type Options struct {
	// ProvincesGeoJSONURL is where front-ends fetch the province polygons
	// referenced by the choropleth.
	ProvincesGeoJSONURL string
	// CacheSize bounds the map and bubble figure caches. Zero disables caching.
	CacheSize int
}

// Controller answers view callbacks against one snapshot.
type Controller struct {
	snap    *pipeline.Snapshot
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics

	mapCache    *lruCache[mapKey, figure.Figure]
	bubbleCache *lruCache[bubbleKey, figure.Figure]
}

// NewController creates a Controller. A nil snapshot is treated as empty.
func NewController(snap *pipeline.Snapshot, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if snap == nil {
		snap = pipeline.EmptySnapshot(domain.CanonicalNames, logger)
	}
	return &Controller{
		snap:        snap,
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
		mapCache:    newLRUCache[mapKey, figure.Figure](opts.CacheSize),
		bubbleCache: newLRUCache[bubbleKey, figure.Figure](opts.CacheSize),
	}
}

// Snapshot returns the snapshot the controller reads.
func (c *Controller) Snapshot() *pipeline.Snapshot { return c.snap }

// renderFigure runs build at the callback boundary. Errors and panics are
// logged with their stack and replaced by a figure titled errTitle.
func (c *Controller) renderFigure(name, errTitle string, build func() (figure.Figure, error)) (fig figure.Figure) {
	start := time.Now()
	outcome := outcomeOK

	defer func() {
		if r := recover(); r != nil {
			c.fail(name, eris.Errorf("%s panicked: %v", name, r))
			fig = figure.Titled(errTitle)
			outcome = outcomeError
		}
		c.observe(name, outcome, start)
	}()

	f, err := build()
	if err != nil {
		c.fail(name, err)
		outcome = outcomeError
		return figure.Titled(errTitle)
	}
	if len(f.Data) == 0 && f.Title() != "" {
		outcome = outcomeDiagnostic
	}
	return f
}

// transition runs a navigation handler. A false result, an error or a panic
// all mean "leave every output unchanged".
func transition[T any](c *Controller, name string, fn func() (T, bool, error)) (out T, ok bool) {
	start := time.Now()
	outcome := outcomeOK

	defer func() {
		if r := recover(); r != nil {
			c.fail(name, eris.Errorf("%s panicked: %v", name, r))
			var zero T
			out, ok = zero, false
			outcome = outcomeError
		}
		c.observe(name, outcome, start)
	}()

	v, ok, err := fn()
	if err != nil {
		c.fail(name, err)
		outcome = outcomeError
		var zero T
		return zero, false
	}
	if !ok {
		outcome = outcomeNoUpdate
	}
	return v, ok
}

func (c *Controller) fail(name string, err error) {
	c.logger.Error("view callback failed",
		"callback", name,
		"snapshot_id", c.snap.ID,
		"error", err,
		"stack", eris.ToString(err, true),
	)
}

func (c *Controller) observe(name, outcome string, start time.Time) {
	c.metrics.Callbacks.WithLabelValues(name, outcome).Inc()
	c.metrics.CallbackDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func (c *Controller) cacheResult(figureName string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.FigureCache.WithLabelValues(figureName, result).Inc()
}
