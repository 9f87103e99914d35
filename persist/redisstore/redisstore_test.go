package redisstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Key wrap/unwrap round-trips regardless of whether a KEK is configured;
// SaveSession/LoadSession exercise this same path against a live Redis
// instance and are intentionally not unit-tested here.
func TestWrapUnwrapKeyRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}

	t.Run("no KEK stores plaintext hex", func(t *testing.T) {
		s := &Store{}
		hexStr, wrapped, err := s.wrapKey(key)
		require.NoError(t, err)
		require.False(t, wrapped)

		got, err := s.unwrapKey(hexStr, wrapped)
		require.NoError(t, err)
		require.Equal(t, key, got)
	})

	t.Run("with KEK wraps and unwraps", func(t *testing.T) {
		kek := make([]byte, 16)
		for i := range kek {
			kek[i] = 0xAA
		}
		s := &Store{kek: kek}
		hexStr, wrapped, err := s.wrapKey(key)
		require.NoError(t, err)
		require.True(t, wrapped)

		got, err := s.unwrapKey(hexStr, wrapped)
		require.NoError(t, err)
		require.Equal(t, key, got)
	})
}
