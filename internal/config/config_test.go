package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "ALGORITHM", "JWT_ISSUER",
		"ACCESS_TOKEN_EXPIRE_DAYS", "LOGIN_MAX_ATTEMPTS", "LOGIN_COOLDOWN_MINUTES",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("USERS_FILE", "users.yaml")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginCooldown)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Issuer)
}

func TestLoadReadsOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_DAYS", "2")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_COOLDOWN_MINUTES", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.Equal(t, 48*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	assert.Equal(t, time.Minute, cfg.LoginCooldown)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"missing secret", "SECRET_KEY", "", "SECRET_KEY"},
		{"unsupported algorithm", "ALGORITHM", "RS256", "ALGORITHM"},
		{"bad expire days", "ACCESS_TOKEN_EXPIRE_DAYS", "soon", "ACCESS_TOKEN_EXPIRE_DAYS"},
		{"negative expire days", "ACCESS_TOKEN_EXPIRE_DAYS", "-1", "ACCESS_TOKEN_EXPIRE_DAYS"},
		{"expire days overflow", "ACCESS_TOKEN_EXPIRE_DAYS", "200000", "ACCESS_TOKEN_EXPIRE_DAYS"},
		{"no user source", "USERS_FILE", "", "DATABASE_URL or USERS_FILE"},
		{"bad port", "PORT", "http", "PORT"},
		{"bad log level", "LOG_LEVEL", "loud", "LOG_LEVEL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadAcceptsLargestExpireDays(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_DAYS", strconv.Itoa(maxTokenDays))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Positive(t, cfg.AccessTokenTTL)
}

func TestLoadNormalizesLogLevelCase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LOG_LEVEL", "INFO")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadAcceptsDatabaseWithoutUsersFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("USERS_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/auth")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/auth", cfg.DatabaseURL)
}
