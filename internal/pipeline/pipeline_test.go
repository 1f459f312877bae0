package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/observability"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	sources domain.Sources
	calls   int
}

func (m *mockLoader) Load(_ context.Context) domain.Sources {
	m.calls++
	return m.sources
}

type mockPublisher struct {
	err       error
	published []*pipeline.Snapshot
	deadline  bool
}

func (m *mockPublisher) PublishSnapshot(ctx context.Context, snap *pipeline.Snapshot) error {
	_, m.deadline = ctx.Deadline()
	m.published = append(m.published, snap)
	return m.err
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func okSources() domain.Sources {
	return domain.Sources{
		Provinces: testProvinces(),
		Faults:    domain.EmptyFaultSet(),
		Events:    trendEvents(),
		Status:    domain.StatusOK,
	}
}

// --- tests ---

func TestPipeline_Build(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	loader := &mockLoader{sources: okSources()}
	metrics := newTestMetrics()

	p := pipeline.New(loader, domain.CanonicalNames, discardLogger(), metrics).WithClock(clock)
	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Snapshot())

	snap := p.Build(context.Background())

	require.NotNil(t, snap)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Same(t, snap, p.Snapshot())
	assert.Equal(t, 1, loader.calls)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, clock.Now(), snap.PreparedAt)
	assert.Equal(t, domain.StatusOK, snap.SourceStatus)
	assert.Equal(t, domain.StatusOK, snap.Map.Status)
	assert.Equal(t, domain.StatusOK, snap.Trends.Status)
	assert.Len(t, snap.Map.Averages, 2)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SnapshotRows.WithLabelValues("average_magnitude")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.SnapshotRows.WithLabelValues("counts")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SourceStatus.WithLabelValues("events")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SourceStatus.WithLabelValues("faults")), 0)
}

func TestPipeline_Build_DegradedSourcesStillReady(t *testing.T) {
	freezeClock(t, 2002)
	loader := &mockLoader{sources: domain.EmptySources("adm2_en", "events", errors.New("boom"))}
	metrics := newTestMetrics()

	p := pipeline.New(loader, domain.CanonicalNames, discardLogger(), metrics)
	snap := p.Build(context.Background())

	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, domain.StatusDegraded, snap.SourceStatus)
	require.Error(t, snap.SourceErr)
	assert.Equal(t, domain.StatusEmpty, snap.Map.Status)
	assert.Equal(t, domain.StatusEmpty, snap.Trends.Status)
	assert.Equal(t, []int{2000, 2001, 2002}, snap.Trends.Years)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SourceStatus.WithLabelValues("provinces")), 0)
}

func TestPipeline_Build_DoesNotPublish(t *testing.T) {
	pub := &mockPublisher{}

	p := pipeline.New(&mockLoader{sources: okSources()}, domain.CanonicalNames, discardLogger(), newTestMetrics()).
		WithPublisher(pub, time.Second)
	snap := p.Build(context.Background())

	require.NotNil(t, snap)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Empty(t, pub.published)
}

func TestPipeline_Publish(t *testing.T) {
	pub := &mockPublisher{}
	metrics := newTestMetrics()

	p := pipeline.New(&mockLoader{sources: okSources()}, domain.CanonicalNames, discardLogger(), metrics).
		WithPublisher(pub, time.Second)
	snap := p.Build(context.Background())
	p.Publish(context.Background(), snap)

	require.Len(t, pub.published, 1)
	assert.Same(t, snap, pub.published[0])
	assert.True(t, pub.deadline, "publish is bounded by the timeout")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SnapshotPublish.WithLabelValues("success")), 0)
}

func TestPipeline_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := newTestMetrics()

	p := pipeline.New(&mockLoader{sources: okSources()}, domain.CanonicalNames, discardLogger(), metrics).
		WithPublisher(pub, 0)
	snap := p.Build(context.Background())
	p.Publish(context.Background(), snap)

	require.NotNil(t, snap)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.False(t, pub.deadline)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SnapshotPublish.WithLabelValues("error")), 0)
}

func TestNewSnapshot_NilSourcesAreEmpty(t *testing.T) {
	snap := pipeline.NewSnapshot(domain.Sources{}, domain.ExactNames, discardLogger())

	require.NotNil(t, snap.Provinces)
	require.NotNil(t, snap.Faults)
	require.NotNil(t, snap.Events)
	assert.True(t, snap.Events.Empty())
	assert.NotNil(t, snap.Map.Averages)
	assert.Equal(t, domain.DefaultMinYear, snap.Trends.MinYear)
}

func TestEmptySnapshot(t *testing.T) {
	a := pipeline.EmptySnapshot(domain.CanonicalNames, discardLogger())
	b := pipeline.EmptySnapshot(domain.CanonicalNames, discardLogger())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.StatusDegraded, a.SourceStatus)
}

func TestPipeline_PublishWithoutPublisher(t *testing.T) {
	metrics := newTestMetrics()
	p := pipeline.New(&mockLoader{sources: okSources()}, domain.CanonicalNames, discardLogger(), metrics)

	p.Publish(context.Background(), p.Build(context.Background()))

	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SnapshotPublish.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SnapshotPublish.WithLabelValues("error")), 0)
}
