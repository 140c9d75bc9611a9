package tx

// Type identifies a transaction type.
type Type uint16

const (
	// TypeUnknown is the zero value and never valid.
	TypeUnknown Type = iota
	// TypeMarketSetup creates the marketplace configuration singleton.
	TypeMarketSetup
	// TypeTokenAccountInit creates the custody vault for a fungible payment asset.
	TypeTokenAccountInit
	// TypeTokenSetup binds a token config entry under a type tag.
	TypeTokenSetup
	// TypeSellStart opens a listing and moves the NFT into custody.
	TypeSellStart
	// TypeSellUpdate changes the price of an active listing.
	TypeSellUpdate
	// TypeSellClose closes a listing and returns the NFT to the seller.
	TypeSellClose
	// TypeBuy settles a listing at its current price.
	TypeBuy
	// TypeOfferApply escrows a bid against a listing.
	TypeOfferApply
	// TypeOfferCancel withdraws an offer and refunds the escrow.
	TypeOfferCancel
	// TypeOfferAccept settles a listing against an escrowed offer.
	TypeOfferAccept
)

var typeNames = map[Type]string{
	TypeMarketSetup:      "MarketSetup",
	TypeTokenAccountInit: "TokenAccountInit",
	TypeTokenSetup:       "TokenSetup",
	TypeSellStart:        "SellStart",
	TypeSellUpdate:       "SellUpdate",
	TypeSellClose:        "SellClose",
	TypeBuy:              "Buy",
	TypeOfferApply:       "OfferApply",
	TypeOfferCancel:      "OfferCancel",
	TypeOfferAccept:      "OfferAccept",
}

// String returns the canonical transaction type name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// TypeFromName resolves a canonical name back to its Type.
// Returns TypeUnknown for unrecognized names.
func TypeFromName(name string) Type {
	for t, n := range typeNames {
		if n == name {
			return t
		}
	}
	return TypeUnknown
}
