// Package pipeline turns the loaded sources into the immutable snapshot the
// view layer reads: the average-magnitude and population tables for the map,
// and the count aggregates for the trends explorer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
)

// SourceLoader reads the three input files.
type SourceLoader interface {
	Load(ctx context.Context) domain.Sources
}

// SnapshotPublisher exports a prepared snapshot to a downstream sink.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap *Snapshot) error
}

// Snapshot is everything the view layer reads. It is built once and never
// mutated, so concurrent readers need no locking.
type Snapshot struct {
	ID         string
	PreparedAt time.Time

	Provinces *domain.ProvinceSet
	Faults    *domain.FaultSet
	Events    *domain.EventTable

	SourceStatus domain.Status
	SourceErr    error

	Matcher domain.NameMatcher
	Map     MapData
	Trends  TrendData
}

// NewSnapshot derives the map and trends tables from loaded sources.
func NewSnapshot(src domain.Sources, m domain.NameMatcher, logger *slog.Logger) *Snapshot {
	provinces, faults, events := src.Provinces, src.Faults, src.Events
	if provinces == nil {
		provinces = domain.EmptyProvinceSet("")
	}
	if faults == nil {
		faults = domain.EmptyFaultSet()
	}
	if events == nil {
		events = domain.EmptyEventTable()
	}

	return &Snapshot{
		ID:           uuid.NewString(),
		Provinces:    provinces,
		Faults:       faults,
		Events:       events,
		SourceStatus: src.Status,
		SourceErr:    src.Err,
		Matcher:      m,
		Map:          PrepareMapData(provinces, events, m, logger),
		Trends:       PrepareLineChartData(events, logger),
	}
}

// EmptySnapshot returns a snapshot built from no data.
func EmptySnapshot(m domain.NameMatcher, logger *slog.Logger) *Snapshot {
	return NewSnapshot(domain.EmptySources("", "", nil), m, logger)
}

// Pipeline loads the sources once, prepares the snapshot and optionally
// publishes it.
type Pipeline struct {
	loader    SourceLoader
	matcher   domain.NameMatcher
	publisher SnapshotPublisher
	timeout   time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	snapshot atomic.Pointer[Snapshot]
}

// New creates a Pipeline. Call WithPublisher to enable snapshot export.
func New(loader SourceLoader, matcher domain.NameMatcher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:  loader,
		matcher: matcher,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// WithPublisher enables Publish through pub, bounded by timeout.
func (p *Pipeline) WithPublisher(pub SnapshotPublisher, timeout time.Duration) *Pipeline {
	p.publisher = pub
	p.timeout = timeout
	return p
}

// WithClock overrides the clock that stamps PreparedAt.
func (p *Pipeline) WithClock(c clockwork.Clock) *Pipeline {
	p.clock = c
	return p
}

// CheckReadiness returns nil once a snapshot has been built, degraded or not.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("snapshot has not been prepared yet")
	}
	return nil
}

// Snapshot returns the current snapshot, or nil before Build.
func (p *Pipeline) Snapshot() *Snapshot {
	return p.snapshot.Load()
}

// Build loads the sources and prepares the snapshot. It never fails: load and
// derivation problems are reflected in the snapshot's statuses. Build does not
// publish; call Publish once the snapshot is being served.
func (p *Pipeline) Build(ctx context.Context) *Snapshot {
	start := p.clock.Now()

	src := p.loader.Load(ctx)
	snap := NewSnapshot(src, p.matcher, p.logger)
	snap.PreparedAt = p.clock.Now().UTC()

	p.record(snap)
	p.snapshot.Store(snap)

	p.logger.Info("snapshot prepared",
		"snapshot_id", snap.ID,
		"source_status", snap.SourceStatus,
		"map_status", snap.Map.Status,
		"trends_status", snap.Trends.Status,
		"duration", p.clock.Since(start),
	)

	return snap
}

// Publish exports snap through the configured publisher. Failures are logged
// and counted, never returned. It is a no-op without a publisher.
func (p *Pipeline) Publish(ctx context.Context, snap *Snapshot) {
	if p.publisher == nil || snap == nil {
		return
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.publisher.PublishSnapshot(ctx, snap); err != nil {
		p.metrics.SnapshotPublish.WithLabelValues("error").Inc()
		p.logger.Error("snapshot publish failed", "snapshot_id", snap.ID, "error", err)
		return
	}
	p.metrics.SnapshotPublish.WithLabelValues("success").Inc()
}

func (p *Pipeline) record(snap *Snapshot) {
	sourceUp := func(ok bool) float64 {
		if ok && snap.SourceStatus != domain.StatusDegraded {
			return 1
		}
		return 0
	}
	p.metrics.SourceStatus.WithLabelValues("provinces").Set(sourceUp(!snap.Provinces.Empty()))
	p.metrics.SourceStatus.WithLabelValues("faults").Set(sourceUp(!snap.Faults.Empty()))
	p.metrics.SourceStatus.WithLabelValues("events").Set(sourceUp(!snap.Events.Empty()))

	p.metrics.SnapshotRows.WithLabelValues("average_magnitude").Set(float64(len(snap.Map.Averages)))
	p.metrics.SnapshotRows.WithLabelValues("population").Set(float64(len(snap.Map.Population)))
	p.metrics.SnapshotRows.WithLabelValues("counts").Set(float64(len(snap.Trends.Counts)))
	p.metrics.SnapshotRows.WithLabelValues("overall_counts").Set(float64(len(snap.Trends.Overall)))
}
