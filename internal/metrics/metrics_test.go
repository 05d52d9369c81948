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

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(AnalysesTotal.WithLabelValues("text", "completed"))
	ObserveAnalysis("text", "completed", 1500*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("text", "completed")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Register()
	Register()
	ObserveAnalysis("image", "upstream_failure", time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nutrilens_analyses_total{outcome="upstream_failure",source="image"}`)
	assert.Contains(t, rec.Body.String(), "nutrilens_active_sessions")
}
