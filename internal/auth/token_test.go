package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorhub_backend/internal/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{}
	config.AppConfig.JWT.Secret = "test-secret"
	config.AppConfig.JWT.TTL = 60
	m.Run()
}

func TestToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
}

func TestToken_RejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestToken_RejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "Alice")
	require.NoError(t, err)

	config.AppConfig.JWT.Secret = "other-secret"
	defer func() { config.AppConfig.JWT.Secret = "test-secret" }()

	_, err = ParseToken(token)
	assert.Error(t, err)
}
