package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/authgate/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore is the read-only user lookup the auth flow depends on.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.UserCredential, error)
}

// HashCostReporter is implemented by stores that can report the highest bcrypt
// cost among their password hashes. Zero means no bcrypt hashes are stored.
type HashCostReporter interface {
	MaxBcryptCost(ctx context.Context) (int, error)
}
