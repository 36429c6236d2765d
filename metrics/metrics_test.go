package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"megacoop-kyc/metrics"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRequest("status", metrics.OutcomeSuccess, 20*time.Millisecond)
	m.ObserveRequest("status", metrics.OutcomeSuccess, 40*time.Millisecond)
	m.ObserveRequest("nin", metrics.OutcomeRejected, 10*time.Millisecond)
	m.ObserveStep("1", "accepted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("status", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("nin", metrics.OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepResults.WithLabelValues("1", "accepted")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("status", metrics.OutcomeError, time.Second)
		m.ObserveStep("3", "invalid")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveStep("2", "rejected")

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `megacoop_kyc_step_results_total{result="rejected",step="2"} 1`))
}
