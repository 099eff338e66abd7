package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/authgate/internal/models"
	"github.com/hongminglow/authgate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.UserStore        = (*Store)(nil)
	_ storage.HashCostReporter = (*Store)(nil)
)

// Store provides Postgres-backed user lookup. Rows are owned by whichever
// system manages accounts; this store never writes them. On startup it only
// creates the users table when it is missing, so a fresh database can be
// seeded for local use.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore connects to databaseURL and creates the users table if absent.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role INTEGER NOT NULL DEFAULT 0,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash TEXT NOT NULL
	);`
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.UserCredential, error) {
	const query = `
	SELECT id, username, full_name, email, role, disabled, password_hash
	FROM users
	WHERE username = $1;
	`
	row := s.pool.QueryRow(ctx, query, username)
	return scanUser(row)
}

// MaxBcryptCost returns the highest cost among bcrypt hashes in the table.
func (s *Store) MaxBcryptCost(ctx context.Context) (int, error) {
	const query = `
	SELECT COALESCE(MAX(substring(password_hash from 5 for 2)::int), 0)
	FROM users
	WHERE password_hash ~ '^\$2[aby]\$[0-9]{2}\$';
	`
	var cost int
	if err := s.pool.QueryRow(ctx, query).Scan(&cost); err != nil {
		return 0, fmt.Errorf("query bcrypt cost: %w", err)
	}
	return cost, nil
}

func scanUser(row pgx.Row) (models.UserCredential, error) {
	var user models.UserCredential
	if err := row.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.Role, &user.Disabled, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserCredential{}, storage.ErrNotFound
		}
		return models.UserCredential{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
