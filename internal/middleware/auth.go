package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/authgate/internal/auth"
	"github.com/hongminglow/authgate/internal/http/respond"
	"github.com/hongminglow/authgate/internal/metrics"
	"github.com/hongminglow/authgate/internal/models"
	"github.com/hongminglow/authgate/internal/storage"
)

const credentialsMessage = "Could not validate credentials"

// SessionGate resolves a bearer token to a user.
type SessionGate interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

type userContextKey struct{}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok
}

// RequireUser rejects requests without a valid bearer token for an active
// user. Token problems answer 401 and a disabled user answers 400.
func RequireUser(gate SessionGate, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				m.Authentication(metrics.AuthMissingToken)
				respond.Challenge(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, err := gate.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				m.Authentication(metrics.AuthOK)
				ctx := context.WithValue(r.Context(), userContextKey{}, user)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.Is(err, auth.ErrInactiveUser):
				m.Authentication(metrics.AuthInactiveUser)
				respond.Error(w, http.StatusBadRequest, "Inactive user")
			case errors.Is(err, auth.ErrUnauthorized):
				m.Authentication(rejectionOutcome(err))
				logger.DebugContext(r.Context(), "bearer token rejected", "reason", err)
				respond.Challenge(w, http.StatusUnauthorized, credentialsMessage)
			default:
				m.Authentication(metrics.AuthError)
				logger.ErrorContext(r.Context(), "authenticate request", "error", err)
				respond.Error(w, http.StatusInternalServerError, "failed to authenticate")
			}
		})
	}
}

func rejectionOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return metrics.AuthExpiredToken
	case errors.Is(err, storage.ErrNotFound):
		return metrics.AuthUnknownUser
	default:
		return metrics.AuthInvalidToken
	}
}

func bearerToken(value string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
