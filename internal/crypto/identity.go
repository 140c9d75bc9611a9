package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

// addressVersion is the version byte prepended to account IDs before
// base58check encoding. 0x23 yields addresses starting with 'M'.
const addressVersion = 0x23

// ErrBadAddress is returned when an address fails to decode or carries
// the wrong version byte.
var ErrBadAddress = errors.New("malformed account address")

// AccountID is a 160-bit account identifier: RIPEMD160(SHA256(publicKey)).
// Two different hashes are used, following Bitcoin's address derivation,
// to rule out length-extension attacks.
type AccountID [AccountIDSize]byte

// CalcAccountID computes the account ID for a compressed secp256k1 public key.
func CalcAccountID(publicKey []byte) AccountID {
	sha := sha256.Sum256(publicKey)
	h := ripemd160.New()
	h.Write(sha[:])

	var id AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// Address returns the base58check encoding of the account ID.
func (id AccountID) Address() string {
	return base58.CheckEncode(id[:], addressVersion)
}

// IsZero reports whether the account ID is the zero value.
func (id AccountID) IsZero() bool {
	return id == AccountID{}
}

// String implements fmt.Stringer.
func (id AccountID) String() string {
	return id.Address()
}

// DecodeAddress decodes a base58check address back into an account ID.
func DecodeAddress(addr string) (AccountID, error) {
	var id AccountID
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if version != addressVersion || len(decoded) != AccountIDSize {
		return id, ErrBadAddress
	}
	copy(id[:], decoded)
	return id, nil
}

// KeyPair holds a secp256k1 keypair used to sign transactions.
type KeyPair struct {
	priv *btcec.PrivateKey
	pub  *btcec.PublicKey
}

// NewKeyPairFromSeed derives a keypair deterministically from a seed.
// The private scalar is Sha512Half of the seed; if that value is out of
// range for the curve (vanishingly unlikely) the digest is re-hashed.
func NewKeyPairFromSeed(seed []byte) *KeyPair {
	digest := Sha512Half(seed)
	for {
		priv, _ := btcec.PrivKeyFromBytes(digest[:])
		if priv.Key.IsZero() {
			digest = Sha512Half(digest[:])
			continue
		}
		return &KeyPair{priv: priv, pub: priv.PubKey()}
	}
}

// GenerateKeyPair creates a keypair from fresh randomness.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv, pub: priv.PubKey()}, nil
}

// PublicKey returns the 33-byte compressed public key.
func (kp *KeyPair) PublicKey() []byte {
	return kp.pub.SerializeCompressed()
}

// AccountID returns the account ID derived from the public key.
func (kp *KeyPair) AccountID() AccountID {
	return CalcAccountID(kp.PublicKey())
}

// Address returns the account address for this keypair.
func (kp *KeyPair) Address() string {
	return kp.AccountID().Address()
}

// Sign signs a message with the private key. The message is hashed with
// SHA-512Half before signing; the signature is DER-encoded.
func (kp *KeyPair) Sign(msg []byte) []byte {
	digest := Sha512Half(msg)
	sig := ecdsa.Sign(kp.priv, digest[:])
	return sig.Serialize()
}

// Verify checks a DER-encoded signature over msg against a compressed
// secp256k1 public key.
func Verify(publicKey, msg, signature []byte) bool {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	digest := Sha512Half(msg)
	return sig.Verify(digest[:], pub)
}

// SeedFromName derives a 16-byte seed from a human-readable name. Used by
// the keygen command and the test environment so that the same name always
// yields the same account.
func SeedFromName(name string) []byte {
	h := sha512.Sum512([]byte(name))
	return h[:16]
}
