package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuesports/tournament-hub/models"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	user := &models.User{ID: 42, Role: models.RoleAdmin}

	token, err := GenerateJWT(user, secret)
	require.NoError(t, err)

	claims, err := ParseJWT(token, secret)
	require.NoError(t, err)

	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, "admin", claims["role"])
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: 1, Role: models.RolePlayer}

	token, err := GenerateJWT(user, []byte("secret-one"))
	require.NoError(t, err)

	_, err = ParseJWT(token, []byte("secret-two"))
	assert.Error(t, err)
}
