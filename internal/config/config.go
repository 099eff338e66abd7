package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/hongminglow/authgate/internal/auth"
)

// maxTokenDays is the largest day count a time.Duration can hold.
const maxTokenDays = int(math.MaxInt64 / int64(24*time.Hour))

// Config holds runtime configuration sourced from env vars. The json tags name
// the variable each field comes from and key validation errors.
type Config struct {
	Port             string        `json:"PORT"`
	DatabaseURL      string        `json:"DATABASE_URL"`
	UsersFile        string        `json:"USERS_FILE"`
	RedisURL         string        `json:"REDIS_URL"`
	SecretKey        string        `json:"SECRET_KEY"`
	Algorithm        string        `json:"ALGORITHM"`
	Issuer           string        `json:"JWT_ISSUER"`
	AccessTokenTTL   time.Duration `json:"ACCESS_TOKEN_EXPIRE_DAYS"`
	LoginMaxAttempts int           `json:"LOGIN_MAX_ATTEMPTS"`
	LoginCooldown    time.Duration `json:"LOGIN_COOLDOWN_MINUTES"`
	CORSOrigins      []string      `json:"CORS_ALLOWED_ORIGINS"`
	LogLevel         string        `json:"LOG_LEVEL"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		UsersFile:   strings.TrimSpace(os.Getenv("USERS_FILE")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		SecretKey:   strings.TrimSpace(os.Getenv("SECRET_KEY")),
		Algorithm:   strings.ToUpper(fallback(os.Getenv("ALGORITHM"), "HS256")),
		Issuer:      strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:    strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
	}

	days, err := positiveInt("ACCESS_TOKEN_EXPIRE_DAYS", 0)
	if err != nil {
		return Config{}, err
	}
	if days > maxTokenDays {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_DAYS must not exceed %d, got %d", maxTokenDays, days)
	}
	if days > 0 {
		cfg.AccessTokenTTL = time.Duration(days) * 24 * time.Hour
	} else {
		cfg.AccessTokenTTL = auth.DefaultTokenTTL
	}

	if cfg.LoginMaxAttempts, err = positiveInt("LOGIN_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	minutes, err := positiveInt("LOGIN_COOLDOWN_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.LoginCooldown = time.Duration(minutes) * time.Minute

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and accepted values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Algorithm, validation.Required, validation.In(toAny(auth.SupportedAlgorithms())...)),
		validation.Field(&c.UsersFile, validation.By(func(any) error {
			if c.DatabaseURL == "" && c.UsersFile == "" {
				return errors.New("DATABASE_URL or USERS_FILE is required")
			}
			return nil
		})),
		validation.Field(&c.LoginMaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
	)
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func positiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
