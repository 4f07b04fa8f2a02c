package librarian_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/librarian"
)

func TestHashPassword(t *testing.T) {
	t.Run("rejects an empty password", func(t *testing.T) {
		_, err := librarian.HashPassword("")
		assert.ErrorIs(t, err, librarian.ErrNoEmptyString)
	})

	t.Run("produces a bcrypt hash", func(t *testing.T) {
		hash, err := librarian.HashPassword("secret123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$10$"))
		assert.NotContains(t, hash, "secret123")
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := librarian.HashPassword("secret123")
		require.NoError(t, err)

		second, err := librarian.HashPassword("secret123")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := librarian.HashPassword("secret123")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, librarian.ComparePasswordAndHash("secret123", hash))
	})

	t.Run("mismatch maps to the generic credentials error", func(t *testing.T) {
		err := librarian.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, librarian.ErrInvalidCredentials)
	})

	t.Run("invalid hash is surfaced as-is", func(t *testing.T) {
		err := librarian.ComparePasswordAndHash("secret123", "not-a-hash")
		require.Error(t, err)
		assert.NotErrorIs(t, err, librarian.ErrInvalidCredentials)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := librarian.HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, librarian.VerifyPassword("secret123", hash))
	assert.False(t, librarian.VerifyPassword("wrong-password", hash))
	assert.False(t, librarian.VerifyPassword("secret123", "not-a-hash"))
}
