package report

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus instrumentation for the optimizer
// and the exam allocator, adapted from the teacher's MetricsService
// collector-registration style.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	stageDuration    *prometheus.HistogramVec
	conflictsBefore  prometheus.Gauge
	conflictsAfter   prometheus.Gauge
	scoreGauge       prometheus.Gauge
	allocationsTotal *prometheus.CounterVec
	strategyUsed     *prometheus.CounterVec
}

// NewMetrics registers and returns the core's Prometheus collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_stage_duration_seconds",
		Help:    "Duration of each optimizer pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	conflictsBefore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_conflicts_before",
		Help: "Conflict count before the last optimization run",
	})
	conflictsAfter := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_conflicts_after",
		Help: "Conflict count remaining after the last optimization run",
	})
	scoreGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_global_score",
		Help: "Global score (0-100) of the last optimization run",
	})

	allocationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_allocations_total",
		Help: "Total exam room allocations attempted, by outcome",
	}, []string{"outcome"})

	strategyUsed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_allocation_strategy_total",
		Help: "Room-selection strategy used by the allocator",
	}, []string{"strategy"})

	registry.MustRegister(stageDuration, conflictsBefore, conflictsAfter, scoreGauge, allocationsTotal, strategyUsed)

	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		stageDuration:    stageDuration,
		conflictsBefore:  conflictsBefore,
		conflictsAfter:   conflictsAfter,
		scoreGauge:       scoreGauge,
		allocationsTotal: allocationsTotal,
		strategyUsed:     strategyUsed,
	}
}

// Handler exposes the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveStage records the wall-clock duration of one optimizer phase.
func (m *Metrics) ObserveStage(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveImprovement records the result of an optimization run.
func (m *Metrics) ObserveImprovement(i Improvement) {
	if m == nil {
		return
	}
	m.conflictsBefore.Set(float64(i.Before.Conflicts))
	m.conflictsAfter.Set(float64(i.After.Conflicts))
	m.scoreGauge.Set(i.After.Score)
}

// ObserveAllocation records an exam allocation attempt and which
// room-selection strategy ultimately served it.
func (m *Metrics) ObserveAllocation(outcome, strategy string) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues(outcome).Inc()
	if strategy != "" {
		m.strategyUsed.WithLabelValues(strategy).Inc()
	}
}
