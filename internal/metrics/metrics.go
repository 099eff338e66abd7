// Package metrics exposes authentication counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess        = "success"
	LoginBadCredentials = "bad_credentials"
	LoginInvalidRequest = "invalid_request"
	LoginThrottled      = "throttled"
	LoginError          = "error"
)

// Authentication outcomes for protected routes.
const (
	AuthOK           = "ok"
	AuthMissingToken = "missing_token"
	AuthInvalidToken = "invalid_token"
	AuthExpiredToken = "expired_token"
	AuthUnknownUser  = "unknown_user"
	AuthInactiveUser = "inactive_user"
	AuthError        = "error"
)

// Metrics holds the registry and collectors. A nil *Metrics discards all
// observations.
type Metrics struct {
	registry *prometheus.Registry
	logins   *prometheus.CounterVec
	auths    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		auths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Name:      "authentications_total",
			Help:      "Bearer token authentications by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.logins, m.auths)
	return m
}

// Login records a login outcome.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// Authentication records a protected-route outcome.
func (m *Metrics) Authentication(outcome string) {
	if m == nil {
		return
	}
	m.auths.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
