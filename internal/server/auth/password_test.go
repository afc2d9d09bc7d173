package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "argon2id$"))

	assert.True(t, VerifyPassword("correct horse battery staple", encoded))
	assert.False(t, VerifyPassword("wrong password", encoded))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedEncodings(t *testing.T) {
	assert.False(t, VerifyPassword("x", ""))
	assert.False(t, VerifyPassword("x", "bcrypt$abc$def"))
	assert.False(t, VerifyPassword("x", "argon2id$!!!$def"))
	assert.False(t, VerifyPassword("x", "argon2id$onlytwo"))
}
