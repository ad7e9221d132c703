package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dassyor/config"
)

// Token types carried in the "typ" claim. Only access tokens carry a role.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded identity of a caller.
type Claims struct {
	UserID    string
	Role      string
	TokenType string
}

// TokenManager signs and verifies HS256 tokens with issuer/audience checks.
type TokenManager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 characters")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("jwt issuer and audience are required")
	}

	return &TokenManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  time.Duration(cfg.AccessTokenMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour,
	}, nil
}

// GenerateAccessToken creates a signed access token carrying the role claim.
func (m *TokenManager) GenerateAccessToken(userID, role string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("userID is required")
	}
	if role == "" {
		return "", time.Time{}, errors.New("role is required")
	}

	now := time.Now().UTC()
	expiration := now.Add(m.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  expiration.Unix(),
		"iat":  now.Unix(),
		"iss":  m.issuer,
		"aud":  m.audience,
		"typ":  TokenTypeAccess,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, expiration, nil
}

// GenerateRefreshToken creates a signed refresh token. Refresh tokens carry
// no role; the role is re-read at refresh time.
func (m *TokenManager) GenerateRefreshToken(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("userID is required")
	}

	now := time.Now().UTC()
	expiration := now.Add(m.refreshTTL)

	claims := jwt.MapClaims{
		"sub": userID,
		"exp": expiration.Unix(),
		"iat": now.Unix(),
		"iss": m.issuer,
		"aud": m.audience,
		"typ": TokenTypeRefresh,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, expiration, nil
}

// Verify decodes a token, enforcing signature, expiry, issuer and audience.
// Every failure mode collapses into ErrInvalidToken so callers cannot
// distinguish a missing token from an expired or forged one.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenStr,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	role, _ := mapClaims["role"].(string)
	typ, _ := mapClaims["typ"].(string)

	return &Claims{UserID: sub, Role: role, TokenType: typ}, nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
