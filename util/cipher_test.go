package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherSealOpen(t *testing.T) {
	cipher, err := NewCipher("test-secret")
	require.NoError(t, err)

	sealed, err := cipher.Seal([]byte(`{"access_token":"xoxb-1"}`))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "xoxb-1")

	opened, err := cipher.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, `{"access_token":"xoxb-1"}`, string(opened))
}

func TestCipherRejectsTamperedBlob(t *testing.T) {
	cipher, err := NewCipher("test-secret")
	require.NoError(t, err)

	sealed, err := cipher.Seal([]byte("secret"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = cipher.Open(sealed)
	require.Error(t, err)
}

func TestCipherRequiresKey(t *testing.T) {
	_, err := NewCipher("")
	require.Error(t, err)
}
