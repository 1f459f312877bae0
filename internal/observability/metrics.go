package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the explorer.
type Metrics struct {
	// View callback metrics.
	Callbacks        *prometheus.CounterVec   // labels: callback, outcome={ok,no_update,diagnostic,error}
	CallbackDuration *prometheus.HistogramVec // labels: callback
	FigureCache      *prometheus.CounterVec   // labels: figure={map,bubble}, result={hit,miss}

	// Snapshot metrics.
	SnapshotRows    *prometheus.GaugeVec   // labels: table
	SourceStatus    *prometheus.GaugeVec   // labels: source={provinces,faults,events}
	SnapshotPublish *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all explorer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_explorer",
			Name:      "callbacks_total",
			Help:      "View callbacks by name and outcome.",
		}, []string{"callback", "outcome"}),
		CallbackDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_explorer",
			Name:      "callback_duration_seconds",
			Help:      "View callback duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"callback"}),
		FigureCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_explorer",
			Name:      "figure_cache_total",
			Help:      "Figure cache lookups by figure and result.",
		}, []string{"figure", "result"}),
		SnapshotRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quake_explorer",
			Name:      "snapshot_rows",
			Help:      "Rows in each derived snapshot table.",
		}, []string{"table"}),
		SourceStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quake_explorer",
			Name:      "source_status",
			Help:      "1 when the source loaded with data, 0 when empty or degraded.",
		}, []string{"source"}),
		SnapshotPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_explorer",
			Name:      "snapshot_publish_total",
			Help:      "Snapshot publish attempts by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.Callbacks,
		m.CallbackDuration,
		m.FigureCache,
		m.SnapshotRows,
		m.SourceStatus,
		m.SnapshotPublish,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Callbacks:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_explorer", Name: "callbacks_total"}, []string{"callback", "outcome"}),
		CallbackDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quake_explorer", Name: "callback_duration_seconds"}, []string{"callback"}),
		FigureCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_explorer", Name: "figure_cache_total"}, []string{"figure", "result"}),
		SnapshotRows:     prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "quake_explorer", Name: "snapshot_rows"}, []string{"table"}),
		SourceStatus:     prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "quake_explorer", Name: "source_status"}, []string{"source"}),
		SnapshotPublish:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_explorer", Name: "snapshot_publish_total"}, []string{"outcome"}),
	}
}
