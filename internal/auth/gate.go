package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/authgate/internal/models"
	"github.com/hongminglow/authgate/internal/storage"
)

// TokenVerifier extracts the subject from a bearer token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gate resolves a bearer token to an active user.
type Gate struct {
	tokens TokenVerifier
	users  storage.UserStore
}

// NewGate constructs a Gate.
func NewGate(tokens TokenVerifier, users storage.UserStore) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate returns the user the token was issued to.
//
// Token failures and unknown subjects wrap ErrUnauthorized together with the
// underlying cause. A disabled user yields ErrInactiveUser. Store failures
// other than storage.ErrNotFound are returned wrapped and unclassified.
func (g *Gate) Authenticate(ctx context.Context, token string) (models.User, error) {
	subject, err := g.tokens.Verify(token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	cred, err := g.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if cred.Disabled {
		return models.User{}, ErrInactiveUser
	}
	return cred.User, nil
}
