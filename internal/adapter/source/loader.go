// Package source reads the province polygons, fault lines and event CSV from disk.
package source

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
)

// ErrMissingColumn is returned when a required attribute or CSV column is absent.
var ErrMissingColumn = domain.ErrMissingColumn

// Source names used in logs and metrics.
const (
	SourceProvinces = "provinces"
	SourceFaults    = "faults"
	SourceEvents    = "events"
)

// Options locates the three source files and names their key attributes.
type Options struct {
	ProvincesPath string
	FaultsPath    string
	EventsPath    string

	ProvinceKeyProperty  string
	FaultCatalogProperty string
	FaultCatalogMatch    string
}

// Loader reads the configured source files.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	return &Loader{opts: opts, logger: logger}
}

// Load reads all three sources concurrently. A failure on any of them degrades
// the whole result to empty structures; it is logged, never returned.
func (l *Loader) Load(ctx context.Context) domain.Sources {
	start := time.Now()

	var (
		provinces *domain.ProvinceSet
		faults    *domain.FaultSet
		events    *domain.EventTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		provinces, err = l.loadProvinces(gctx)
		return tagged(SourceProvinces, err)
	})
	g.Go(func() error {
		var err error
		faults, err = l.loadFaults(gctx)
		return tagged(SourceFaults, err)
	})
	g.Go(func() error {
		var err error
		events, err = ReadEvents(l.opts.EventsPath)
		return tagged(SourceEvents, err)
	})

	if err := g.Wait(); err != nil {
		failed := ""
		var se *sourceError
		if errors.As(err, &se) {
			failed = se.source
		}
		l.logger.Error("source load failed, continuing with empty data",
			"source", failed,
			"error", err,
			"stack", eris.ToString(err, true),
		)
		return domain.EmptySources(l.opts.ProvinceKeyProperty, failed, err)
	}

	status := domain.StatusOK
	if provinces.Empty() || events.Empty() {
		status = domain.StatusEmpty
	}

	l.logger.Info("sources loaded",
		"provinces", provinces.Len(),
		"faults", faults.Len(),
		"events", events.Len(),
		"status", status,
		"duration", time.Since(start),
	)

	return domain.Sources{Provinces: provinces, Faults: faults, Events: events, Status: status}
}

func (l *Loader) loadProvinces(ctx context.Context) (*domain.ProvinceSet, error) {
	fc, err := ReadFeatures(l.opts.ProvincesPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := ProvincesFromFeatures(fc, l.opts.ProvinceKeyProperty)
	if len(fc.Features) > 0 && set.Empty() {
		l.logger.Warn("no province feature carries the name key",
			"property", l.opts.ProvinceKeyProperty,
			"features", len(fc.Features),
		)
	}
	return set, nil
}

func (l *Loader) loadFaults(ctx context.Context) (*domain.FaultSet, error) {
	fc, err := ReadFeatures(l.opts.FaultsPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FaultsFromFeatures(fc, l.opts.FaultCatalogProperty, l.opts.FaultCatalogMatch)
}

// ProvincesFromFeatures keeps polygonal features that carry a name key.
// The full collection is retained for rendering.
func ProvincesFromFeatures(fc *geojson.FeatureCollection, keyProperty string) *domain.ProvinceSet {
	set := &domain.ProvinceSet{KeyProperty: keyProperty, Features: fc}
	for _, f := range fc.Features {
		name, ok := f.Properties[keyProperty].(string)
		if !ok || name == "" {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			set.Provinces = append(set.Provinces, domain.NewProvince(name, f.Geometry))
		}
	}
	return set
}

// FaultsFromFeatures keeps features whose catalog attribute contains match,
// case-insensitively. Features without the attribute never match; a collection
// where no feature carries it is rejected.
func FaultsFromFeatures(fc *geojson.FeatureCollection, catalogProperty, match string) (*domain.FaultSet, error) {
	set := &domain.FaultSet{Features: geojson.NewFeatureCollection()}
	needle := strings.ToLower(match)
	seen := false

	for _, f := range fc.Features {
		raw, has := f.Properties[catalogProperty]
		if !has {
			continue
		}
		seen = true
		name, ok := raw.(string)
		if !ok || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		set.Features.Append(f)
		switch f.Geometry.(type) {
		case orb.LineString, orb.MultiLineString:
			set.Faults = append(set.Faults, domain.Fault{CatalogName: name, Geometry: f.Geometry})
		}
	}

	if len(fc.Features) > 0 && !seen {
		return nil, eris.Wrapf(ErrMissingColumn, "fault attribute %q", catalogProperty)
	}
	return set, nil
}

type sourceError struct {
	source string
	err    error
}

func (e *sourceError) Error() string { return e.source + ": " + e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func tagged(source string, err error) error {
	if err == nil {
		return nil
	}
	return &sourceError{source: source, err: err}
}
