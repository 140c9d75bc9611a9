// Package entry defines the fixed-schema ledger entries of the marketplace
// protocol and their binary encodings. Every entry lives at a deterministic
// keylet and is never relocated.
package entry

import (
	"errors"
	"fmt"
)

// Type identifies the kind of ledger entry stored at a keylet.
type Type uint16

const (
	// TypeInvalid is the zero value and never stored.
	TypeInvalid Type = iota
	// TypeConfig is the marketplace configuration singleton.
	TypeConfig
	// TypeTokenConfig binds a payment-asset type tag to its mint and vault.
	TypeTokenConfig
	// TypeTokenAccount holds a fungible balance for one holder and one mint.
	TypeTokenAccount
	// TypeSell is an active or closed listing of one NFT.
	TypeSell
	// TypeOffer is an escrowed bid against a listing.
	TypeOffer
)

// String returns the string representation of the entry type.
func (t Type) String() string {
	switch t {
	case TypeConfig:
		return "Config"
	case TypeTokenConfig:
		return "TokenConfig"
	case TypeTokenAccount:
		return "TokenAccount"
	case TypeSell:
		return "Sell"
	case TypeOffer:
		return "Offer"
	default:
		return fmt.Sprintf("Type(%d)", uint16(t))
	}
}

// schemaVersion is the first byte of every serialized entry.
const schemaVersion = 1

// Parse errors.
var (
	ErrShortEntry = errors.New("entry data truncated")
	ErrBadVersion = errors.New("unsupported entry schema version")
)

func checkHeader(data []byte, want int) error {
	if len(data) < 1 {
		return ErrShortEntry
	}
	if data[0] != schemaVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, data[0])
	}
	if len(data) < want {
		return ErrShortEntry
	}
	return nil
}
