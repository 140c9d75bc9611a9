package testing

import (
	"github.com/cgc-labs/marketd/internal/crypto"
)

// Account is a test account with a deterministic keypair.
type Account struct {
	// Name is a human-readable identifier used in assertions.
	Name string

	// Keys is the signing keypair derived from the name.
	Keys *crypto.KeyPair

	// ID is the 20-byte account ID.
	ID crypto.AccountID

	// Address is the encoded account address.
	Address string
}

// NewAccount creates a test account with a keypair derived from the
// name. The same name always yields the same account, keeping tests
// reproducible.
func NewAccount(name string) *Account {
	keys := crypto.NewKeyPairFromSeed(crypto.SeedFromName(name))
	return &Account{
		Name:    name,
		Keys:    keys,
		ID:      keys.AccountID(),
		Address: keys.Address(),
	}
}
