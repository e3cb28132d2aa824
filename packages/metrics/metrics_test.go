package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	counter := httpRequests.WithLabelValues(http.MethodGet, "/flights", "200")
	before := testutil.ToFloat64(counter)

	ObserveRequest(http.MethodGet, "/flights", http.StatusOK, 15*time.Millisecond)
	ObserveRequest(http.MethodGet, "/flights", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestHandlerExposesCounters(t *testing.T) {
	RowsProcessed.WithLabelValues(OutcomeSkipped).Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `droneanalytics_parsing_rows_total{outcome="skipped"}`)
}
