package marketplace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialStoreRequiresSecret(t *testing.T) {
	_, err := NewCredentialStore(nil, "")
	require.Error(t, err)
}

func TestSealOpenRoundTrip(t *testing.T) {
	store, err := NewCredentialStore(nil, "unit-test-secret")
	require.NoError(t, err)

	sealed, err := store.seal("wb-api-key-123")
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "wb-api-key-123")

	plain, err := store.open(sealed)
	require.NoError(t, err)
	require.Equal(t, "wb-api-key-123", plain)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	store, err := NewCredentialStore(nil, "unit-test-secret")
	require.NoError(t, err)

	sealed, err := store.seal("wb-api-key-123")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = store.open(sealed)
	require.Error(t, err)
}

func TestOpenRejectsWrongSecret(t *testing.T) {
	a, err := NewCredentialStore(nil, "secret-a")
	require.NoError(t, err)
	b, err := NewCredentialStore(nil, "secret-b")
	require.NoError(t, err)

	sealed, err := a.seal("wb-api-key-123")
	require.NoError(t, err)

	_, err = b.open(sealed)
	require.Error(t, err)
}
