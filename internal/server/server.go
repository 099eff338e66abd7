package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/authgate/internal/auth"
	"github.com/hongminglow/authgate/internal/config"
	"github.com/hongminglow/authgate/internal/http/handlers"
	"github.com/hongminglow/authgate/internal/metrics"
	"github.com/hongminglow/authgate/internal/middleware"
	"github.com/hongminglow/authgate/internal/storage"
	"github.com/hongminglow/authgate/internal/throttle"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server. limiter may be
// nil, which disables login throttling.
func New(cfg config.Config, store storage.UserStore, limiter *throttle.Limiter, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.Issuer, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}
	m := metrics.New()

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	mux.Handle("GET /metrics", m.Handler())

	authHandler := handlers.NewAuthHandler(
		newAuthenticator(store, tokens, logger),
		auth.NewGate(tokens, store),
		m,
		logger,
	)
	if limiter != nil {
		authHandler.WithThrottle(limiter)
	}
	authHandler.Register(mux)

	handler := middleware.Logging(logger)(middleware.CORS(cfg.CORSOrigins)(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &Server{inner: httpServer}, nil
}

// newAuthenticator matches the unknown-user dummy hash to the costliest bcrypt
// hash the store holds.
func newAuthenticator(store storage.UserStore, tokens *auth.TokenManager, logger *slog.Logger) *auth.Authenticator {
	authn := auth.NewAuthenticator(store, tokens)
	reporter, ok := store.(storage.HashCostReporter)
	if !ok {
		return authn
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cost, err := reporter.MaxBcryptCost(ctx)
	if err != nil {
		logger.Warn("read stored bcrypt cost failed, unknown users use the default cost", "error", err)
		return authn
	}
	if cost > 0 {
		authn.WithDummyCost(cost)
	}
	logger.Debug("dummy password hash ready", "cost", authn.DummyCost())
	return authn
}

// Handler exposes the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
