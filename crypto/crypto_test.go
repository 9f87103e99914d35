package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSoftwareFactoryECB(t *testing.T) {
	var key Key128
	for i := range key {
		key[i] = 0x01
	}

	f := SoftwareFactory{}
	enc, err := f.NewEnc(key)
	require.NoError(t, err)

	var src, dst [16]byte
	enc.EncryptBlock(&dst, &src)
	require.NotEqual(t, src, dst)

	// encrypting the same plaintext twice must be deterministic.
	var dst2 [16]byte
	enc.EncryptBlock(&dst2, &src)
	require.Equal(t, dst, dst2)
}

func TestMIC4Determinism(t *testing.T) {
	var key Key128
	for i := range key {
		key[i] = 0x02
	}

	f := SoftwareFactory{}
	m1, err := MIC4(f, key, []byte("hello world"))
	require.NoError(t, err)

	m2, err := MIC4(f, key, []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, m1, m2)

	// flipping one bit of the message must change the MIC (property 2).
	flipped := []byte("Hello world")
	m3, err := MIC4(f, key, flipped)
	require.NoError(t, err)
	require.NotEqual(t, m1, m3)
}
