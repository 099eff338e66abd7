package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/authgate/internal/storage"
)

// Authenticator exchanges a username and password for an access token.
type Authenticator struct {
	users  storage.UserStore
	tokens *TokenManager

	dummyCost int
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthenticator constructs an Authenticator. Unknown usernames are compared
// against a bcrypt hash at bcrypt.DefaultCost until WithDummyCost says otherwise.
func NewAuthenticator(users storage.UserStore, tokens *TokenManager) *Authenticator {
	return &Authenticator{users: users, tokens: tokens, dummyCost: bcrypt.DefaultCost}
}

// WithDummyCost sets the bcrypt cost of the hash unknown usernames are checked
// against and computes it right away. It should match the costliest stored
// hash so both failure paths take as long. Call it before the first Login;
// out-of-range costs are ignored.
func (a *Authenticator) WithDummyCost(cost int) *Authenticator {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		a.dummyCost = cost
	}
	a.dummy()
	return a
}

// DummyCost reports the bcrypt cost used for unknown usernames.
func (a *Authenticator) DummyCost() int {
	return a.dummyCost
}

func (a *Authenticator) dummy() []byte {
	a.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), a.dummyCost)
		if err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}

// Login returns a token whose subject is the username. Unknown users and wrong
// passwords both yield ErrBadCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	cred, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if h := a.dummy(); h != nil {
				_ = bcrypt.CompareHashAndPassword(h, []byte(password))
			}
			return "", ErrBadCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !VerifyPassword(password, cred.PasswordHash) {
		return "", ErrBadCredentials
	}

	token, err := a.tokens.Generate(cred.Username)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
