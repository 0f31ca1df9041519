package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecognitionMetrics contains Prometheus metrics for the meal recognition pipeline.
// All methods are safe to call on a nil receiver.
type RecognitionMetrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	FoodsDetected      *prometheus.CounterVec
	MealCalories       prometheus.Histogram
	ImageQuality       prometheus.Histogram
	ActiveRecognitions prometheus.Gauge
}

// NewRecognitionMetrics creates and registers recognition metrics on registry.
func NewRecognitionMetrics(registry *prometheus.Registry) (*RecognitionMetrics, error) {
	m := &RecognitionMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register recognition metrics: %w", err)
	}
	return m, nil
}

func (m *RecognitionMetrics) initMetrics() {
	m.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutritive_recognitions_total",
			Help: "Total number of meal recognitions partitioned by classifier strategy and status",
		},
		[]string{"strategy", "status"},
	)
	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutritive_recognition_duration_seconds",
			Help:    "Time taken to produce a recognition result",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"strategy"},
	)
	m.FoodsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutritive_foods_detected_total",
			Help: "Total number of detected foods partitioned by catalog id",
		},
		[]string{"food_id"},
	)
	m.MealCalories = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nutritive_meal_calories",
			Help:    "Total calories of recognised meals",
			Buckets: prometheus.LinearBuckets(100, 100, 12),
		},
	)
	m.ImageQuality = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nutritive_image_quality_score",
			Help:    "Image quality score of submitted photos",
			Buckets: []float64{0.3, 0.5, 0.6, 0.7, 0.9, 1},
		},
	)
	m.ActiveRecognitions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nutritive_active_recognitions",
			Help: "Number of recognitions currently in progress",
		},
	)
}

// RecordRecognition records one finished recognition
func (m *RecognitionMetrics) RecordRecognition(strategy string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RequestsTotal.WithLabelValues(strategy, StatusError).Inc()
		return
	}
	m.RequestsTotal.WithLabelValues(strategy, StatusSuccess).Inc()
	m.RequestDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordMeal records the detected foods, total calories and image quality of a result
func (m *RecognitionMetrics) RecordMeal(foodIDs []string, calories, quality float64) {
	if m == nil {
		return
	}
	for _, id := range foodIDs {
		m.FoodsDetected.WithLabelValues(id).Inc()
	}
	m.MealCalories.Observe(calories)
	m.ImageQuality.Observe(quality)
}

// TrackActive increments the in-progress gauge and returns a func that decrements it
func (m *RecognitionMetrics) TrackActive() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveRecognitions.Inc()
	return m.ActiveRecognitions.Dec
}

// Describe implements the prometheus.Collector interface.
func (m *RecognitionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
	m.FoodsDetected.Describe(ch)
	ch <- m.MealCalories.Desc()
	ch <- m.ImageQuality.Desc()
	ch <- m.ActiveRecognitions.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *RecognitionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
	m.FoodsDetected.Collect(ch)
	ch <- m.MealCalories
	ch <- m.ImageQuality
	ch <- m.ActiveRecognitions
}
