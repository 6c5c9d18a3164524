package jwthelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testSigningKey, 7, "test-agent")
	require.NoError(t, err)

	claims, err := ParseToken(testSigningKey, token)
	require.NoError(t, err)

	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "test-agent", claims.UserAgent)
	assert.False(t, claims.Refresh)
}

func TestRefreshTokenCarriesRefreshFlag(t *testing.T) {
	token, err := GenerateRefreshToken(testSigningKey, 7, "test-agent")
	require.NoError(t, err)

	claims, err := ParseToken(testSigningKey, token)
	require.NoError(t, err)
	assert.True(t, claims.Refresh)
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateToken(testSigningKey, 7, "test-agent")
	require.NoError(t, err)

	_, err = ParseToken([]byte("another-key"), token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSigningKey, "not.a.token")
	assert.Error(t, err)
}
