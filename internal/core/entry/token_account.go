package entry

import (
	"encoding/binary"

	"github.com/cgc-labs/marketd/internal/crypto"
)

// TokenAccount holds a fungible balance for one holder and one mint. User
// wallets and protocol vaults share this schema; a vault is simply a token
// account whose holder is the protocol identity and whose keylet is derived
// by the protocol rather than from a user account.
//
// An NFT holding is a token account with balance 1 for a supply-one mint.
type TokenAccount struct {
	Holder  crypto.AccountID
	Mint    MintID
	Balance uint64
}

const tokenAccountSize = 1 + crypto.AccountIDSize + MintIDSize + 8

// Serialize encodes the token account entry.
func (ta *TokenAccount) Serialize() []byte {
	b := make([]byte, 0, tokenAccountSize)
	b = append(b, schemaVersion)
	b = append(b, ta.Holder[:]...)
	b = append(b, ta.Mint[:]...)
	b = binary.BigEndian.AppendUint64(b, ta.Balance)
	return b
}

// ParseTokenAccount decodes a token account entry.
func ParseTokenAccount(data []byte) (*TokenAccount, error) {
	if err := checkHeader(data, tokenAccountSize); err != nil {
		return nil, err
	}
	ta := &TokenAccount{}
	rest := data[1:]
	copy(ta.Holder[:], rest[:crypto.AccountIDSize])
	rest = rest[crypto.AccountIDSize:]
	copy(ta.Mint[:], rest[:MintIDSize])
	ta.Balance = binary.BigEndian.Uint64(rest[MintIDSize:])
	return ta, nil
}
