package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg, "")
	pr.IncTimerStarted()
	pr.IncTimerEnded(OutcomeNatural)
	pr.IncTimerEnded(OutcomeForced)
	pr.IncTimerEnded(OutcomeForced)
	pr.ObserveRunDuration(90 * time.Second)
	pr.IncStepStarted("NORMAL")
	pr.SetRunningTimers(2)
	pr.IncSchedulerFire("start")
	pr.IncBroadcastFailure("publish")

	assert.InDelta(t, 1, testutil.ToFloat64(pr.timersStarted), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.timersEnded.WithLabelValues("forced")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.runningTimers), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)
	assert.Equal(t, "steptimer_broadcast_failures_total", mfs[0].GetName())
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg, "test").IncTimerStarted()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_timers_started_total 1")
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncTimerStarted()
		pr.SetRunningTimers(1)
	})
}

func TestHTTPHandlerCountsScrapes(t *testing.T) {
	reg := prom.NewRegistry()
	h := HTTPHandler(reg)

	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `promhttp_metric_handler_requests_total{code="200"} 2`)
}
