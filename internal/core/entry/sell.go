package entry

import (
	"encoding/binary"

	"github.com/cgc-labs/marketd/internal/crypto"
)

// Sell is a listing of exactly one NFT at a fixed price, priced against the
// payment asset of TokenTag. The NFT sits in its vault for the whole time
// the listing is active; Active goes false on close or settlement and the
// entry is then no longer purchasable.
type Sell struct {
	ID       uint64
	Seller   crypto.AccountID
	NFTMint  MintID
	Price    uint64
	TokenTag byte
	Active   bool
}

const sellSize = 1 + 8 + crypto.AccountIDSize + MintIDSize + 8 + 1 + 1

// Serialize encodes the sell entry.
func (s *Sell) Serialize() []byte {
	b := make([]byte, 0, sellSize)
	b = append(b, schemaVersion)
	b = binary.BigEndian.AppendUint64(b, s.ID)
	b = append(b, s.Seller[:]...)
	b = append(b, s.NFTMint[:]...)
	b = binary.BigEndian.AppendUint64(b, s.Price)
	b = append(b, s.TokenTag)
	if s.Active {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	return b
}

// ParseSell decodes a sell entry.
func ParseSell(data []byte) (*Sell, error) {
	if err := checkHeader(data, sellSize); err != nil {
		return nil, err
	}
	s := &Sell{}
	rest := data[1:]
	s.ID = binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]
	copy(s.Seller[:], rest[:crypto.AccountIDSize])
	rest = rest[crypto.AccountIDSize:]
	copy(s.NFTMint[:], rest[:MintIDSize])
	rest = rest[MintIDSize:]
	s.Price = binary.BigEndian.Uint64(rest[:8])
	s.TokenTag = rest[8]
	s.Active = rest[9] != 0
	return s, nil
}
