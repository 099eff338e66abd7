package memory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/authgate/internal/models"
	"github.com/hongminglow/authgate/internal/storage"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.UserStore        = (*Store)(nil)
	_ storage.HashCostReporter = (*Store)(nil)
)

// Store is an in-memory user table. It is built once and never mutated, so
// lookups need no locking.
type Store struct {
	users map[string]models.UserCredential
}

type seedFile struct {
	Users []models.UserCredential `yaml:"users"`
}

// NewUserStore indexes the given credentials by username. Duplicate or blank
// usernames are rejected.
func NewUserStore(users []models.UserCredential) (*Store, error) {
	index := make(map[string]models.UserCredential, len(users))
	for _, u := range users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return nil, fmt.Errorf("user %d has no username", u.ID)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate username %q", name)
		}
		u.Username = name
		index[name] = u
	}
	return &Store{users: index}, nil
}

// LoadFile reads a YAML seed file of the form:
//
//	users:
//	  - id: 1
//	    username: alice
//	    full_name: Alice Doe
//	    email: alice@example.com
//	    role: 1
//	    disabled: false
//	    password_hash: $2a$10$...
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return NewUserStore(seed.Users)
}

// Len reports the number of users held.
func (s *Store) Len() int {
	return len(s.users)
}

// FindByUsername fetches a user by exact username.
func (s *Store) FindByUsername(_ context.Context, username string) (models.UserCredential, error) {
	u, ok := s.users[username]
	if !ok {
		return models.UserCredential{}, storage.ErrNotFound
	}
	return u, nil
}

// MaxBcryptCost returns the highest bcrypt cost among the stored hashes.
// Non-bcrypt hashes are skipped.
func (s *Store) MaxBcryptCost(context.Context) (int, error) {
	highest := 0
	for _, u := range s.users {
		if !strings.HasPrefix(u.PasswordHash, "$2") {
			continue
		}
		cost, err := bcrypt.Cost([]byte(u.PasswordHash))
		if err != nil {
			continue
		}
		highest = max(highest, cost)
	}
	return highest, nil
}
