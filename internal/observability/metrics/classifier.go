package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/nutritive-go/internal/errors"
)

// ClassifierMetrics records vision model calls, fallbacks and unresolved food
// ids. It satisfies classifier.Observer.
type ClassifierMetrics struct {
	ModelCallsTotal   *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	ModelErrors       *prometheus.CounterVec
	FallbacksTotal    *prometheus.CounterVec
	UnresolvedTotal   prometheus.Counter
}

// NewClassifierMetrics creates and registers classifier metrics on registry.
func NewClassifierMetrics(registry *prometheus.Registry) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{
		ModelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutritive_vision_model_calls_total",
				Help: "Total number of vision model calls partitioned by model and status",
			},
			[]string{"model", "status"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutritive_vision_model_call_duration_seconds",
				Help:    "Time taken by vision model calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"model"},
		),
		ModelErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutritive_vision_model_errors_total",
				Help: "Total number of failed vision model calls partitioned by error category",
			},
			[]string{"model", "error_type"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutritive_classifier_fallbacks_total",
				Help: "Total number of fallbacks to the colour classifier partitioned by reason",
			},
			[]string{"reason"},
		),
		UnresolvedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nutritive_unresolved_foods_total",
				Help: "Total number of model food ids that did not resolve to a catalog entry",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

// ObserveModelCall records one vision model call
func (m *ClassifierMetrics) ObserveModelCall(model string, duration time.Duration, err error) {
	if err != nil {
		m.ModelCallsTotal.WithLabelValues(model, StatusError).Inc()
		m.ModelErrors.WithLabelValues(model, categorizeError(err)).Inc()
		return
	}
	m.ModelCallsTotal.WithLabelValues(model, StatusSuccess).Inc()
	m.ModelCallDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveFallback records a fallback to the colour classifier
func (m *ClassifierMetrics) ObserveFallback(reason string) {
	m.FallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveUnresolved records a model food id without a catalog match
func (m *ClassifierMetrics) ObserveUnresolved(string) {
	m.UnresolvedTotal.Inc()
}

// categorizeError returns the error category for enhanced errors and a
// coarse guess for everything else
func categorizeError(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return enhanced.GetCategory()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return string(errors.CategoryTimeout)
	case errors.Is(err, context.Canceled):
		return string(errors.CategoryCancellation)
	default:
		return "unknown"
	}
}

// Describe implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ModelCallsTotal.Describe(ch)
	m.ModelCallDuration.Describe(ch)
	m.ModelErrors.Describe(ch)
	m.FallbacksTotal.Describe(ch)
	ch <- m.UnresolvedTotal.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ModelCallsTotal.Collect(ch)
	m.ModelCallDuration.Collect(ch)
	m.ModelErrors.Collect(ch)
	m.FallbacksTotal.Collect(ch)
	ch <- m.UnresolvedTotal
}
