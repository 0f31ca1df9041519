package observability

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// since every instance owns a private registry
func TestNewMetricsConcurrency(t *testing.T) {
	t.Parallel()

	const numGoroutines = 20

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.Registry())
			assert.NotNil(t, m.Recognition)
			assert.NotNil(t, m.Classifier)
			assert.NotNil(t, m.HTTP)
			assert.NotNil(t, m.Datastore)
		})
	}
	wg.Wait()
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Recognition.RecordRecognition("color", 50*time.Millisecond, nil)
	m.Classifier.ObserveFallback("rate_limited")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `nutritive_recognitions_total{status="success",strategy="color"} 1`)
	assert.Contains(t, body, `nutritive_classifier_fallbacks_total{reason="rate_limited"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
