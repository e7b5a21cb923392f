package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	t.Run("hex key of the right size is used as is", func(t *testing.T) {
		secret := strings.Repeat("ab", KeySize)
		key, err := DeriveKey(secret, "csrf")
		require.NoError(t, err)
		assert.Len(t, key, KeySize)
		assert.Equal(t, byte(0xab), key[0])
	})

	t.Run("passphrase is stretched", func(t *testing.T) {
		key, err := DeriveKey("correct horse battery staple", "csrf")
		require.NoError(t, err)
		assert.Len(t, key, KeySize)
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		a, err := DeriveKey("passphrase", "csrf")
		require.NoError(t, err)
		b, err := DeriveKey("passphrase", "csrf")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("purpose separates keys", func(t *testing.T) {
		a, err := DeriveKey("passphrase", "csrf")
		require.NoError(t, err)
		b, err := DeriveKey("passphrase", "sessions")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("short hex is treated as a passphrase", func(t *testing.T) {
		key, err := DeriveKey("abcd", "csrf")
		require.NoError(t, err)
		assert.Len(t, key, KeySize)
		assert.NotEqual(t, []byte{0xab, 0xcd}, key[:2])
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := DeriveKey("", "csrf")
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}
