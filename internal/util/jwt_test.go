package util

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dassyor/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "0123456789abcdef0123456789abcdef",
		Issuer:             "dassyor",
		Audience:           "dassyor-clients",
		AccessTokenMinutes: 60,
		RefreshTokenDays:   7,
	}
}

func TestNewTokenManagerRejectsShortSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Secret = "short"
	_, err := NewTokenManager(cfg)
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)

	token, exp, err := m.GenerateAccessToken("user-123", "Client")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "Client", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestRefreshTokenCarriesNoRole(t *testing.T) {
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)

	token, _, err := m.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)

	other := testJWTConfig()
	other.Audience = "someone-else"
	m2, err := NewTokenManager(other)
	require.NoError(t, err)

	token, _, err := m2.GenerateAccessToken("user-123", "Client")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)

	token, _, err := m.GenerateAccessToken("user-123", "Client")
	require.NoError(t, err)

	_, err = m.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractToken(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(r))

	r.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(r))

	r.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, ExtractToken(r))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(Permanent(assert.AnError)))
	assert.True(t, IsRetryable(assert.AnError))

	// Rate limits and server errors are worth another delivery; other
	// client errors are not.
	assert.True(t, IsRetryable(errors.New("google search overloaded: status 429")))
	assert.True(t, IsRetryable(errors.New("openai 5xx: status 503")))
	assert.False(t, IsRetryable(errors.New("google search rejected: status 403")))
}
