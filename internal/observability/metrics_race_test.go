package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// since every instance owns its registry
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
			assert.NotNil(t, m.HTTP)
			assert.NotNil(t, m.Detection)
			assert.NotNil(t, m.DiskManager)
			assert.NotNil(t, m.MQTT)
		})
	}
	wg.Wait()
}

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Detection.RecordClassification("HUMAN", 100*1024, 2*time.Millisecond)
	m.HTTP.RecordHTTPRequest(http.MethodPost, "/detect", http.StatusOK, 0.002)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `voice_detection_classifications_total{classification="HUMAN"} 1`)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/detect",status_code="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
