package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(accessTTL time.Duration) *authServiceImpl {
	return &authServiceImpl{
		logger:             zerolog.Nop(),
		jwtIssuer:          "tasky-test",
		jwtSigningKey:      []byte("test-signing-key"),
		jwtAccessTokenTTL:  accessTTL,
		jwtRefreshTokenTTL: time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestAuthService(time.Minute)

	token, expiresAt, err := s.generateAccessToken("session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)

	claims, err := s.ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.Subject)
	assert.Equal(t, "tasky-test", claims.Issuer)
}

func TestParseJWTTokenExpired(t *testing.T) {
	s := newTestAuthService(-time.Minute)

	token, _, err := s.generateAccessToken("session-1")
	require.NoError(t, err)

	_, err = s.ParseJWTToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWTTokenWrongKey(t *testing.T) {
	s := newTestAuthService(time.Minute)
	token, _, err := s.generateAccessToken("session-1")
	require.NoError(t, err)

	other := newTestAuthService(time.Minute)
	other.jwtSigningKey = []byte("another-key")

	_, err = other.ParseJWTToken(token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGenerateRefreshTokenIsRandom(t *testing.T) {
	s := newTestAuthService(time.Minute)

	a, err := s.generateRefreshToken()
	require.NoError(t, err)
	b, err := s.generateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
