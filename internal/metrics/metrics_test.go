package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a, err := New("frontend")
	require.NoError(t, err)
	b, err := New("backend")
	require.NoError(t, err)

	a.HTTPRequestsTotal.WithLabelValues("GET", "/", "200").Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")), 0)
}

func TestObserveUpstream(t *testing.T) {
	m := MustNew("frontend")

	m.ObserveUpstream("/api/status", OutcomeSuccess, 0.02)
	m.ObserveUpstream("/api/status", OutcomeTimeout, 10)
	m.ObserveUpstream("/api/status", OutcomeTimeout, 10)

	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("/api/status", OutcomeSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("/api/status", OutcomeTimeout)), 0)
}

func TestObserveDBProbe(t *testing.T) {
	m := MustNew("backend")

	m.ObserveDBProbe("ping", nil, 0.001)
	m.ObserveDBProbe("db-test", errors.New("relation does not exist"), 0.01)

	assert.InDelta(t, 1, testutil.ToFloat64(m.DBProbesTotal.WithLabelValues("ping", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DBProbesTotal.WithLabelValues("db-test", OutcomeError)), 0)
}

func TestHandler_Exposition(t *testing.T) {
	m := MustNew("backend")
	m.HTTPRequestsInFlight.Set(3)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `tierstack_http_requests_in_flight{service="backend"} 3`)
	assert.Contains(t, body, "go_goroutines")
}
