package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha512Half(t *testing.T) {
	// Hashing in one call and in concatenated pieces must agree.
	whole := Sha512Half([]byte("marketd-seed"))
	pieces := Sha512Half([]byte("marketd"), []byte("-seed"))
	require.Equal(t, whole, pieces)

	other := Sha512Half([]byte("marketd-seed2"))
	require.NotEqual(t, whole, other)
}

func TestKeyPairDeterministic(t *testing.T) {
	a := NewKeyPairFromSeed(SeedFromName("alice"))
	b := NewKeyPairFromSeed(SeedFromName("alice"))
	require.Equal(t, a.PublicKey(), b.PublicKey())
	require.Equal(t, a.AccountID(), b.AccountID())

	c := NewKeyPairFromSeed(SeedFromName("carol"))
	require.NotEqual(t, a.AccountID(), c.AccountID())
}

func TestAddressRoundTrip(t *testing.T) {
	kp := NewKeyPairFromSeed(SeedFromName("alice"))
	addr := kp.Address()

	id, err := DecodeAddress(addr)
	require.NoError(t, err)
	require.Equal(t, kp.AccountID(), id)

	_, err = DecodeAddress("not-an-address")
	require.ErrorIs(t, err, ErrBadAddress)
}

func TestSignVerify(t *testing.T) {
	kp := NewKeyPairFromSeed(SeedFromName("alice"))
	msg := []byte("sell one nft for 1000000000")

	sig := kp.Sign(msg)
	require.True(t, Verify(kp.PublicKey(), msg, sig))
	require.False(t, Verify(kp.PublicKey(), []byte("tampered"), sig))

	other := NewKeyPairFromSeed(SeedFromName("mallory"))
	require.False(t, Verify(other.PublicKey(), msg, sig))
}
