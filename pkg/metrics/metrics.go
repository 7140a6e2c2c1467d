// Package metrics exposes Prometheus metrics for batch scoring runs.
//
// A batch process is short-lived, so the registry is owned by the caller and
// pushed to a Pushgateway at the end of a run; the read API serves the same
// registry type over /metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "yieldmap"

// RunMetrics collects per-run counters and gauges
type RunMetrics struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	recordsComputed *prometheus.CounterVec
	rowsWritten     *prometheus.CounterVec
	batchesFailed   *prometheus.CounterVec
	writeRetries    *prometheus.CounterVec
	coverage        *prometheus.GaugeVec
	lastSuccess     prometheus.Gauge
}

// New creates RunMetrics registered on a fresh registry
func New() *RunMetrics {
	reg := prometheus.NewRegistry()

	m := &RunMetrics{
		registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		recordsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_computed_total",
			Help:      "Records produced by the pipeline, by artifact.",
		}, []string{"artifact"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows upserted into output tables.",
		}, []string{"table"}),
		batchesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_batches_failed_total",
			Help:      "Write batches that exhausted their retries.",
		}, []string{"table"}),
		writeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_retries_total",
			Help:      "Retried write batch attempts.",
		}, []string{"table"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_coverage_geos",
			Help:      "Geography counts from the run's data coverage report.",
		}, []string{"bedroom", "field"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without a stage failure.",
		}),
	}

	reg.MustRegister(
		m.stageDuration,
		m.recordsComputed,
		m.rowsWritten,
		m.batchesFailed,
		m.writeRetries,
		m.coverage,
		m.lastSuccess,
	)

	return m
}

// Registry returns the underlying registry
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records a stage duration
func (m *RunMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddComputed counts records produced for an artifact (scores, rollups, yield_movers)
func (m *RunMetrics) AddComputed(artifact string, n int) {
	m.recordsComputed.WithLabelValues(artifact).Add(float64(n))
}

// AddWritten counts upserted rows
func (m *RunMetrics) AddWritten(table string, n int) {
	m.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// IncBatchFailed counts a batch that was given up on
func (m *RunMetrics) IncBatchFailed(table string) {
	m.batchesFailed.WithLabelValues(table).Inc()
}

// IncRetry counts a retried write attempt
func (m *RunMetrics) IncRetry(table string) {
	m.writeRetries.WithLabelValues(table).Inc()
}

// SetCoverage records one coverage count
func (m *RunMetrics) SetCoverage(bedroom int, field string, v int) {
	m.coverage.WithLabelValues(strconv.Itoa(bedroom), field).Set(float64(v))
}

// MarkSuccess stamps the last successful run time
func (m *RunMetrics) MarkSuccess(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// Push sends the registry to a Pushgateway. An empty url is a no-op.
func (m *RunMetrics) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format
func (m *RunMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
