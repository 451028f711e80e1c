// Package metrics provides Prometheus instrumentation for the shared
// memory lifecycle engine and the Windows Port/UDS directory.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks shared-memory-lifecycle Prometheus metrics.
//
// All metrics use the dittoshm_ prefix. Every method handles a nil
// receiver gracefully so callers can pass NullMetrics() when
// instrumentation is not wanted, without branching at every call site.
type Metrics struct {
	SegmentsCreatedTotal  *prometheus.CounterVec
	SegmentsOpenedTotal   *prometheus.CounterVec
	SegmentsRemovedTotal  *prometheus.CounterVec
	MmapFailuresTotal     *prometheus.CounterVec
	DirectoryLookupsTotal *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	SegmentsLive          prometheus.Gauge
}

// NewMetrics creates shared-memory metrics with the dittoshm_ prefix.
//
// Parameters:
//   - reg: Prometheus registerer (typically prometheus.DefaultRegisterer)
//
// Panics if registration fails, which is expected only during
// initialization.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SegmentsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshm_segments_created_total",
				Help: "Total Create calls by creation mode and result",
			},
			[]string{"creation_mode", "result"},
		),
		SegmentsOpenedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshm_segments_opened_total",
				Help: "Total OpenExisting/TryOpenExisting calls by result",
			},
			[]string{"result"},
		),
		SegmentsRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshm_segments_removed_total",
				Help: "Total Remove calls by result",
			},
			[]string{"result"},
		),
		MmapFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshm_mmap_failures_total",
				Help: "Total mmap failures by translated error code",
			},
			[]string{"error_code"},
		),
		DirectoryLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshm_directory_lookups_total",
				Help: "Total Port/UDS directory Get/GetPort calls by operation",
			},
			[]string{"operation"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittoshm_operation_duration_seconds",
				Help:    "Lifecycle operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SegmentsLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoshm_segments_live",
				Help: "Current number of open Segment handles in this process",
			},
		),
	}

	reg.MustRegister(
		m.SegmentsCreatedTotal,
		m.SegmentsOpenedTotal,
		m.SegmentsRemovedTotal,
		m.MmapFailuresTotal,
		m.DirectoryLookupsTotal,
		m.OperationDuration,
		m.SegmentsLive,
	)

	return m
}

// RecordCreate records a Create call's outcome.
func (m *Metrics) RecordCreate(creationMode, result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SegmentsCreatedTotal.WithLabelValues(creationMode, result).Inc()
	m.OperationDuration.WithLabelValues("create").Observe(durationSeconds)
}

// RecordOpen records an OpenExisting/TryOpenExisting call's outcome.
func (m *Metrics) RecordOpen(result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SegmentsOpenedTotal.WithLabelValues(result).Inc()
	m.OperationDuration.WithLabelValues("open").Observe(durationSeconds)
}

// RecordRemove records a Remove call's outcome.
func (m *Metrics) RecordRemove(result string) {
	if m == nil {
		return
	}
	m.SegmentsRemovedTotal.WithLabelValues(result).Inc()
}

// RecordMmapFailure records a translated mmap error code.
func (m *Metrics) RecordMmapFailure(errorCode string) {
	if m == nil {
		return
	}
	m.MmapFailuresTotal.WithLabelValues(errorCode).Inc()
}

// RecordDirectoryLookup records a Port/UDS directory Get or GetPort call.
func (m *Metrics) RecordDirectoryLookup(operation string) {
	if m == nil {
		return
	}
	m.DirectoryLookupsTotal.WithLabelValues(operation).Inc()
}

// SetSegmentsLive updates the live segment count gauge.
func (m *Metrics) SetSegmentsLive(count int) {
	if m == nil {
		return
	}
	m.SegmentsLive.Set(float64(count))
}

// NullMetrics returns nil, which acts as a no-op metrics collector.
// All Metrics methods handle a nil receiver gracefully.
func NullMetrics() *Metrics {
	return nil
}
