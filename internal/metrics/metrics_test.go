package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrementPerOutcome(t *testing.T) {
	m := New()
	m.Login(LoginSuccess)
	m.Login(LoginSuccess)
	m.Login(LoginBadCredentials)
	m.Authentication(AuthExpiredToken)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginBadCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auths.WithLabelValues(AuthExpiredToken)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Login(LoginSuccess)
		m.Authentication(AuthOK)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Login(LoginThrottled)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `authgate_login_attempts_total{outcome="throttled"} 1`), body)
}
