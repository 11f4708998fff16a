package auth

import (
	"testing"

	"github.com/arvena/talentd/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceUsesConfiguredSecret(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret:     "a-durable-secret",
		AccessExpiry:  1,
		RefreshExpiry: 2,
	}

	first := NewJWTService(cfg)
	userID, tenantID := uuid.New(), uuid.New()
	pair, err := first.GenerateTokenPair(userID, tenantID, "ops@example.com", []string{"admin"})
	require.NoError(t, err)

	// a second service built from the same config must accept tokens
	// issued by the first, matching a server restart
	second := NewJWTService(cfg)
	claims, err := second.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tenantID, claims.TenantID)
	assert.Equal(t, []string{"admin"}, claims.Roles)

	other := NewJWTService(config.AuthConfig{JWTSecret: "a-different-secret"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTServiceExpiryFromConfig(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{JWTSecret: "s", AccessExpiry: 3, RefreshExpiry: 72})
	pair, err := svc.GenerateTokenPair(uuid.New(), uuid.New(), "ops@example.com", nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, float64(3), lifetime.Hours())

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	lifetime = refresh.ExpiresAt.Sub(refresh.IssuedAt.Time)
	assert.Equal(t, float64(72), lifetime.Hours())
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}
