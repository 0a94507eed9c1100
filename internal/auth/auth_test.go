package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("secret124", hash))
	assert.False(t, CheckPasswordHash("secret123", "not-a-hash"))
}

func TestGenerateJWT(t *testing.T) {
	Configure("test-secret", 0)

	tokenString, err := GenerateJWT("64b000000000000000000001", "9876543210", "farmer")
	require.NoError(t, err)

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return JwtSecret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "64b000000000000000000001", claims.UserID)
	assert.Equal(t, "9876543210", claims.Mobile)
	assert.Equal(t, "farmer", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	Configure("test-secret", 0)
	tokenString, err := GenerateJWT("64b000000000000000000001", "9876543210", "buyer")
	require.NoError(t, err)

	claims := &JWTClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}
