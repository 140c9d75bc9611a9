package entry

import (
	"encoding/binary"

	"github.com/cgc-labs/marketd/internal/crypto"
)

// Offer is a buyer's bid against a listing, fully funded up front: Amount
// was debited from the buyer's wallet into the token vault when the offer
// was applied, so acceptance can never fail for lack of funds. The entry is
// erased on cancel (refund) or accept (settlement).
type Offer struct {
	ID       uint64
	Buyer    crypto.AccountID
	NFTMint  MintID
	SellID   uint64
	Amount   uint64
	TokenTag byte
}

const offerSize = 1 + 8 + crypto.AccountIDSize + MintIDSize + 8 + 8 + 1

// Serialize encodes the offer entry.
func (o *Offer) Serialize() []byte {
	b := make([]byte, 0, offerSize)
	b = append(b, schemaVersion)
	b = binary.BigEndian.AppendUint64(b, o.ID)
	b = append(b, o.Buyer[:]...)
	b = append(b, o.NFTMint[:]...)
	b = binary.BigEndian.AppendUint64(b, o.SellID)
	b = binary.BigEndian.AppendUint64(b, o.Amount)
	b = append(b, o.TokenTag)
	return b
}

// ParseOffer decodes an offer entry.
func ParseOffer(data []byte) (*Offer, error) {
	if err := checkHeader(data, offerSize); err != nil {
		return nil, err
	}
	o := &Offer{}
	rest := data[1:]
	o.ID = binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]
	copy(o.Buyer[:], rest[:crypto.AccountIDSize])
	rest = rest[crypto.AccountIDSize:]
	copy(o.NFTMint[:], rest[:MintIDSize])
	rest = rest[MintIDSize:]
	o.SellID = binary.BigEndian.Uint64(rest[:8])
	o.Amount = binary.BigEndian.Uint64(rest[8:16])
	o.TokenTag = rest[16]
	return o, nil
}
