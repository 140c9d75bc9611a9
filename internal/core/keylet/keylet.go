// Package keylet computes the deterministic addresses of marketplace ledger
// entries. A keylet is a pure function of its semantic seeds, so any client
// can locate an entry without transacting, and distinct spaces can never
// collide.
package keylet

import (
	"strconv"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/crypto"
)

// Space identifiers for keylet generation. The space is hashed ahead of the
// seeds, which keeps unrelated entry kinds in disjoint key ranges.
const (
	spaceConfig      uint16 = 'c' // Marketplace config (singleton)
	spaceTokenConfig uint16 = 't' // Token config, per type tag
	spaceTokenVault  uint16 = 'v' // Payment-asset custody vault, per type tag
	spaceNFTVault    uint16 = 'n' // NFT custody vault, per mint
	spaceSell        uint16 = 's' // Listing, per seller and mint
	spaceOffer       uint16 = 'o' // Offer, per buyer, mint and sell id
	spaceWallet      uint16 = 'w' // User token account, per holder and mint
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided seeds.
func indexHash(space uint16, seeds ...[]byte) [32]byte {
	spaceBytes := []byte{byte(space >> 8), byte(space)}

	inputs := make([][]byte, 0, len(seeds)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, seeds...)

	return crypto.Sha512Half(inputs...)
}

// Config returns the keylet of the marketplace configuration singleton.
func Config() Keylet {
	return Keylet{
		Type: entry.TypeConfig,
		Key:  indexHash(spaceConfig),
	}
}

// TokenConfig returns the keylet of the token config for a type tag.
func TokenConfig(tag byte) Keylet {
	return Keylet{
		Type: entry.TypeTokenConfig,
		Key:  indexHash(spaceTokenConfig, []byte{tag}),
	}
}

// TokenVault returns the keylet of the payment-asset custody vault for a
// type tag. The vault is a token account held by the protocol identity.
func TokenVault(tag byte) Keylet {
	return Keylet{
		Type: entry.TypeTokenAccount,
		Key:  indexHash(spaceTokenVault, []byte{tag}),
	}
}

// NFTVault returns the keylet of the custody vault for one NFT mint. One
// vault exists per mint, holding the token while its listing is active.
func NFTVault(mint entry.MintID) Keylet {
	return Keylet{
		Type: entry.TypeTokenAccount,
		Key:  indexHash(spaceNFTVault, mint[:]),
	}
}

// Sell returns the keylet of the listing for a seller and NFT mint. The
// derivation enforces the one-active-listing-per-(seller, mint) invariant:
// a second listing for the same pair lands on the same key.
func Sell(seller crypto.AccountID, mint entry.MintID) Keylet {
	return Keylet{
		Type: entry.TypeSell,
		Key:  indexHash(spaceSell, seller[:], mint[:]),
	}
}

// Offer returns the keylet of an offer by buyer against the listing with
// the given id. The sell id is seeded as its ASCII decimal representation.
func Offer(buyer crypto.AccountID, mint entry.MintID, sellID uint64) Keylet {
	return Keylet{
		Type: entry.TypeOffer,
		Key:  indexHash(spaceOffer, buyer[:], mint[:], []byte(strconv.FormatUint(sellID, 10))),
	}
}

// Wallet returns the keylet of a holder's token account for a mint. The
// native asset uses the zero mint.
func Wallet(holder crypto.AccountID, mint entry.MintID) Keylet {
	return Keylet{
		Type: entry.TypeTokenAccount,
		Key:  indexHash(spaceWallet, holder[:], mint[:]),
	}
}
