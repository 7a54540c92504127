// Package metrics records pipeline counters and timings on a private
// Prometheus registry and pushes them to a Pushgateway at the end of a run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pipeline stages used as the "stage" label.
const (
	StageExtract = "extract"
	StageRemap   = "remap"
	StageExport  = "export"
)

// runIDLabel groups pushed metrics per run.
const runIDLabel = "run_id"

// Manager owns the toolkit's Prometheus collectors.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	pushURL          string
	job              string
	registry         *prometheus.Registry

	framesProcessed *prometheus.CounterVec
	jointsUnmapped  prometheus.Gauge
	stageDuration   *prometheus.HistogramVec
}

// NewManager creates a metrics manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bvhtoolkit",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		job:              "bvhtoolkit",
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "frames_processed_total",
		Help:      "Total number of frames written by each pipeline stage",
	}, []string{"stage"})

	m.jointsUnmapped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "joints_unmapped",
		Help:      "Number of target joints filled with NaN in the last remap",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})
}

// Registry returns the registry holding the manager's collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFrames adds n processed frames to a stage.
func (m *Manager) RecordFrames(stage string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.framesProcessed.WithLabelValues(stage).Add(float64(n))
}

// SetUnmappedJoints records how many target joints had no source.
func (m *Manager) SetUnmappedJoints(n int) {
	if !m.enabled {
		return
	}
	m.jointsUnmapped.Set(float64(n))
}

// ObserveStage records the duration of a stage.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Push sends every collected metric to the configured Pushgateway, grouped
// by runID. It is a no-op when no gateway is configured.
func (m *Manager) Push(ctx context.Context, runID string) error {
	if !m.enabled || m.pushURL == "" {
		return nil
	}
	err := push.New(m.pushURL, m.job).
		Gatherer(m.registry).
		Grouping(runIDLabel, runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	return nil
}
