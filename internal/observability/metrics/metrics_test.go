package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/errors"
)

func TestRecognitionMetrics(t *testing.T) {
	t.Parallel()
	t.Attr("component", "metrics")

	m, err := NewRecognitionMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordRecognition("color", 120*time.Millisecond, nil)
	m.RecordRecognition("vision", time.Second, nil)
	m.RecordRecognition("color", 0, errors.NewStd("boom"))
	m.RecordMeal([]string{"dal", "rice", "dal"}, 540, 0.9)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("color", StatusSuccess)), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("color", StatusError)), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.FoodsDetected.WithLabelValues("dal")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))

	done := m.TrackActive()
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ActiveRecognitions), 0)
	done()
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.ActiveRecognitions), 0)
}

func TestRecognitionMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var m *RecognitionMetrics
	assert.NotPanics(t, func() {
		m.RecordRecognition("color", time.Second, nil)
		m.RecordMeal([]string{"dal"}, 100, 0.5)
		m.TrackActive()()
	})
}

func TestClassifierMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewClassifierMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	modelErr := errors.Newf("quota").Category(errors.CategoryExternalModel).Build()
	m.ObserveModelCall("gemini", 2*time.Second, nil)
	m.ObserveModelCall("gemini", time.Second, modelErr)
	m.ObserveModelCall("gemini", time.Second, context.DeadlineExceeded)
	m.ObserveFallback("model_error")
	m.ObserveFallback("model_error")
	m.ObserveUnresolved("pizza")

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.ModelCallsTotal.WithLabelValues("gemini", StatusError)), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ModelErrors.WithLabelValues("gemini", "external-model")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ModelErrors.WithLabelValues("gemini", "timeout")), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("model_error")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.UnresolvedTotal), 0)
}

func TestDatastoreMetricsImplementsRecorder(t *testing.T) {
	t.Parallel()

	m, err := NewDatastoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	var r Recorder = m
	r.RecordOperation(OpMealCreate, StatusSuccess)
	r.RecordDuration(OpMealCreate, 0.002)
	r.RecordError(OpUserGet, "not-found")

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpMealCreate, StatusSuccess)), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpUserGet, "not-found")), 0)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordHTTPRequest("GET", "/api/v2/food/:id", 404, 0.01)
	m.RecordUpload(200 * 1024)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v2/food/:id", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadSize))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(registry)
	require.NoError(t, err)
	_, err = NewHTTPMetrics(registry)
	require.Error(t, err)
}
