package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func newTestManager(t *testing.T, issuer string) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, "HS256", issuer, time.Hour)
	require.NoError(t, err)
	return m
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestNewTokenManagerValidatesInput(t *testing.T) {
	_, err := NewTokenManager("", "HS256", "", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret, "RS256", "", time.Minute)
	assert.Error(t, err)

	m, err := NewTokenManager(testSecret, "hs384", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, m.TTL())
}

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	for _, alg := range SupportedAlgorithms() {
		t.Run(alg, func(t *testing.T) {
			m, err := NewTokenManager(testSecret, alg, "authgate", time.Hour)
			require.NoError(t, err)

			token, err := m.Generate("alice")
			require.NoError(t, err)

			subject, err := m.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "alice", subject)
		})
	}
}

func TestIssueEmbedsAbsoluteExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := newTestManager(t, "").WithClock(fixedClock(now))

	token, err := m.Issue("alice", 10*time.Minute)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, "alice", claims.Subject)
	assert.Empty(t, claims.Issuer)
}

func TestIssueIsDeterministicForSameClock(t *testing.T) {
	m := newTestManager(t, "authgate").WithClock(fixedClock(time.Unix(1_800_000_000, 0)))

	a, err := m.Issue("alice", time.Minute)
	require.NoError(t, err)
	b, err := m.Issue("alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIssueRejectsBlankSubject(t *testing.T) {
	_, err := newTestManager(t, "").Issue("  ", time.Minute)
	assert.Error(t, err)
}

func TestZeroTTLTokenIsRejectedImmediately(t *testing.T) {
	m := newTestManager(t, "")

	token, err := m.Issue("alice", 0)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenExpiresWithClock(t *testing.T) {
	start := time.Unix(1_800_000_000, 0)
	issuer := newTestManager(t, "").WithClock(fixedClock(start))
	token, err := issuer.Issue("alice", time.Minute)
	require.NoError(t, err)

	_, err = issuer.WithClock(fixedClock(start.Add(59 * time.Second))).Verify(token)
	assert.NoError(t, err)

	_, err = issuer.WithClock(fixedClock(start.Add(time.Minute))).Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedTokenIsAlwaysRejected(t *testing.T) {
	m := newTestManager(t, "")
	token, err := m.Generate("alice")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		tampered := []byte(token)
		tampered[i] ^= 0x01
		_, err := m.Verify(string(tampered))
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("flipping byte %d: expected ErrInvalidToken, got %v", i, err)
		}
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	m := newTestManager(t, "authgate")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	cases := map[string]string{
		"other secret":    sign(jwt.SigningMethodHS256, []byte("other-secret"), jwt.RegisteredClaims{Subject: "alice", Issuer: "authgate", ExpiresAt: exp}),
		"other algorithm": sign(jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{Subject: "alice", Issuer: "authgate", ExpiresAt: exp}),
		"unsigned":        sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "alice", Issuer: "authgate", ExpiresAt: exp}),
		"missing subject": sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Issuer: "authgate", ExpiresAt: exp}),
		"missing expiry":  sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "alice", Issuer: "authgate"}),
		"wrong issuer":    sign(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "alice", Issuer: "elsewhere", ExpiresAt: exp}),
		"garbage":         "not.a.token",
		"empty":           "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
