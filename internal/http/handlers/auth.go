package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"

	"github.com/hongminglow/authgate/internal/auth"
	"github.com/hongminglow/authgate/internal/http/respond"
	"github.com/hongminglow/authgate/internal/metrics"
	"github.com/hongminglow/authgate/internal/middleware"
	"github.com/hongminglow/authgate/internal/models/dto"
	"github.com/hongminglow/authgate/internal/throttle"
)

const (
	maxLoginBody       = 1 << 20
	credentialsMessage = "Could not validate credentials"
)

// LoginService exchanges credentials for an access token.
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// LoginThrottle limits repeated login attempts. Reserve is called before the
// password is checked; Reset after a successful login.
type LoginThrottle interface {
	Reserve(ctx context.Context, username, ip string) error
	Reset(ctx context.Context, username, ip string) error
}

// AuthHandler owns the login and current-user endpoints.
type AuthHandler struct {
	logins   LoginService
	gate     middleware.SessionGate
	throttle LoginThrottle
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewAuthHandler constructs the handler. Throttling is off until WithThrottle is called.
func NewAuthHandler(logins LoginService, gate middleware.SessionGate, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logins: logins, gate: gate, metrics: m, logger: logger}
}

// WithThrottle enables failed-login throttling.
func (h *AuthHandler) WithThrottle(t LoginThrottle) *AuthHandler {
	h.throttle = t
	return h
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("GET /auth/users/me", middleware.RequireUser(h.gate, h.metrics, h.logger)(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		h.metrics.Login(metrics.LoginInvalidRequest)
		respond.Error(w, http.StatusBadRequest, "invalid login payload")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.metrics.Login(metrics.LoginInvalidRequest)
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	ip := clientIP(r)
	if h.throttle != nil {
		if err := h.throttle.Reserve(ctx, req.Username, ip); err != nil {
			if errors.Is(err, throttle.ErrRateLimited) {
				h.metrics.Login(metrics.LoginThrottled)
				respond.Error(w, http.StatusTooManyRequests, "too many failed login attempts")
				return
			}
			h.logger.WarnContext(ctx, "login throttle reserve failed", "error", err)
		}
	}

	token, err := h.logins.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			h.metrics.Login(metrics.LoginBadCredentials)
			respond.Challenge(w, http.StatusBadRequest, credentialsMessage)
			return
		}
		h.logger.ErrorContext(ctx, "login failed", "username", req.Username, "error", err)
		h.metrics.Login(metrics.LoginError)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	if h.throttle != nil {
		if err := h.throttle.Reset(ctx, req.Username, ip); err != nil {
			h.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
		}
	}
	h.metrics.Login(metrics.LoginSuccess)
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Challenge(w, http.StatusUnauthorized, credentialsMessage)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// decodeLogin accepts the OAuth2 password form, urlencoded or multipart, and
// for convenience JSON.
func decodeLogin(w http.ResponseWriter, r *http.Request) (dto.LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	var req dto.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxLoginBody); err != nil {
			return req, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return req, err
		}
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
