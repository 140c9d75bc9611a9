package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

func init() {
	Register(TypeOfferApply, func() Transaction {
		return &OfferApply{}
	})
	Register(TypeOfferCancel, func() Transaction {
		return &OfferCancel{}
	})
	Register(TypeOfferAccept, func() Transaction {
		return &OfferAccept{}
	})
}

// OfferApply places an offer on a listing below (or above) its asking
// price. The full offer amount is escrowed into the payment vault up
// front, so a later accept never depends on the buyer still being
// funded.
type OfferApply struct {
	BaseTx

	// TokenTag must match the listing's payment asset (required).
	TokenTag uint8 `json:"TokenTag"`

	// Seller is the address of the listing's seller (required).
	Seller string `json:"Seller"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`

	// SellID is the listing ID the offer targets (required).
	SellID uint64 `json:"SellID"`

	// Amount is the offered amount, escrowed in full (required).
	Amount uint64 `json:"Amount"`
}

// NewOfferApply creates an OfferApply transaction.
func NewOfferApply(account string, tag uint8, seller, nftMint string, sellID, amount uint64) *OfferApply {
	return &OfferApply{
		BaseTx:   NewBaseTx(account),
		TokenTag: tag,
		Seller:   seller,
		NFTMint:  nftMint,
		SellID:   sellID,
		Amount:   amount,
	}
}

// TxType returns the transaction type.
func (o *OfferApply) TxType() Type {
	return TypeOfferApply
}

// Validate checks the transaction shape.
func (o *OfferApply) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.Seller == "" {
		return ErrMissingField
	}
	if _, err := crypto.DecodeAddress(o.Seller); err != nil {
		return ErrMissingField
	}
	if _, err := decodeMint(o.NFTMint); err != nil {
		return err
	}
	if o.Amount == 0 {
		return ErrBadAmount
	}
	return nil
}

// Flatten returns the flat field map.
func (o *OfferApply) Flatten() map[string]any {
	return o.commonFields(map[string]any{
		"TokenTag": o.TokenTag,
		"Seller":   o.Seller,
		"NFTMint":  o.NFTMint,
		"SellID":   o.SellID,
		"Amount":   o.Amount,
	}, TypeOfferApply)
}

// Apply escrows the offer amount and records the offer.
func (o *OfferApply) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}

	seller, _ := crypto.DecodeAddress(o.Seller)
	mint, _ := decodeMint(o.NFTMint)

	data, err := ctx.View.Read(keylet.Sell(seller, mint))
	if err != nil {
		return TefINTERNAL
	}
	if data == nil {
		return TecNO_ENTRY
	}
	sell, err := entry.ParseSell(data)
	if err != nil {
		return TefINTERNAL
	}
	if sell.ID != o.SellID {
		return TecLISTING_MISMATCH
	}
	if sell.TokenTag != o.TokenTag {
		return TecLISTING_MISMATCH
	}
	// The listing need not be active here. An offer on a closed listing
	// cannot settle (accept requires an active listing with a matching
	// ID) but the buyer can always cancel for a full refund.

	tc, err := readTokenConfig(ctx.View, o.TokenTag)
	if err != nil {
		return TefINTERNAL
	}
	if tc == nil {
		return TecNO_ENTRY
	}

	offerKey := keylet.Offer(ctx.AccountID, mint, o.SellID)
	exists, err := ctx.View.Exists(offerKey)
	if err != nil {
		return TefINTERNAL
	}
	if exists {
		return TecDUPLICATE
	}

	payMint := paymentMint(tc)
	balance, err := balanceOf(ctx.View, ctx.AccountID, payMint)
	if err != nil {
		return TefINTERNAL
	}
	if balance < o.Amount {
		return TecINSUFFICIENT_FUNDS
	}

	if err := debitToken(ctx.View, ctx.AccountID, payMint, o.Amount); err != nil {
		return TefINTERNAL
	}
	if err := creditAt(ctx.View, keylet.TokenVault(o.TokenTag), ProtocolID, payMint, o.Amount); err != nil {
		return TefINTERNAL
	}

	offer := entry.Offer{
		ID:       cfg.NextOfferID,
		Buyer:    ctx.AccountID,
		NFTMint:  mint,
		SellID:   o.SellID,
		Amount:   o.Amount,
		TokenTag: o.TokenTag,
	}
	if err := ctx.View.Insert(offerKey, offer.Serialize()); err != nil {
		return TefINTERNAL
	}

	cfg.NextOfferID++
	if err := writeConfig(ctx.View, cfg); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// OfferCancel withdraws the sender's own offer and refunds the escrowed
// amount in full.
type OfferCancel struct {
	BaseTx

	// TokenTag must match the offer's payment asset (required).
	TokenTag uint8 `json:"TokenTag"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`

	// SellID is the listing ID the offer targets (required).
	SellID uint64 `json:"SellID"`
}

// NewOfferCancel creates an OfferCancel transaction.
func NewOfferCancel(account string, tag uint8, nftMint string, sellID uint64) *OfferCancel {
	return &OfferCancel{BaseTx: NewBaseTx(account), TokenTag: tag, NFTMint: nftMint, SellID: sellID}
}

// TxType returns the transaction type.
func (o *OfferCancel) TxType() Type {
	return TypeOfferCancel
}

// Validate checks the transaction shape.
func (o *OfferCancel) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	_, err := decodeMint(o.NFTMint)
	return err
}

// Flatten returns the flat field map.
func (o *OfferCancel) Flatten() map[string]any {
	return o.commonFields(map[string]any{
		"TokenTag": o.TokenTag,
		"NFTMint":  o.NFTMint,
		"SellID":   o.SellID,
	}, TypeOfferCancel)
}

// Apply refunds the escrow and removes the offer.
func (o *OfferCancel) Apply(ctx *ApplyContext) Result {
	mint, _ := decodeMint(o.NFTMint)
	offerKey := keylet.Offer(ctx.AccountID, mint, o.SellID)
	data, err := ctx.View.Read(offerKey)
	if err != nil {
		return TefINTERNAL
	}
	if data == nil {
		return TecNO_ENTRY
	}
	offer, err := entry.ParseOffer(data)
	if err != nil {
		return TefINTERNAL
	}
	// The offer keylet derives from the sender, so only the buyer can
	// ever address their own offer here.
	if offer.TokenTag != o.TokenTag {
		return TecLISTING_MISMATCH
	}

	tc, err := readTokenConfig(ctx.View, o.TokenTag)
	if err != nil {
		return TefINTERNAL
	}
	if tc == nil {
		return TecNO_ENTRY
	}

	payMint := paymentMint(tc)
	if err := debitAt(ctx.View, keylet.TokenVault(o.TokenTag), offer.Amount); err != nil {
		return TefINTERNAL
	}
	if err := creditToken(ctx.View, ctx.AccountID, payMint, offer.Amount); err != nil {
		return TefINTERNAL
	}

	if err := ctx.View.Erase(offerKey); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// OfferAccept settles a listing against an escrowed offer. The sender
// must be the listing's seller; payment comes out of the vault, not the
// buyer's wallet, so the settlement cannot fail on buyer funds.
type OfferAccept struct {
	BaseTx

	// TokenTag must match the listing's payment asset (required).
	TokenTag uint8 `json:"TokenTag"`

	// Buyer is the address of the offer's buyer (required).
	Buyer string `json:"Buyer"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`

	// SellID is the listing ID the offer targets (required).
	SellID uint64 `json:"SellID"`
}

// NewOfferAccept creates an OfferAccept transaction.
func NewOfferAccept(account string, tag uint8, buyer, nftMint string, sellID uint64) *OfferAccept {
	return &OfferAccept{BaseTx: NewBaseTx(account), TokenTag: tag, Buyer: buyer, NFTMint: nftMint, SellID: sellID}
}

// TxType returns the transaction type.
func (o *OfferAccept) TxType() Type {
	return TypeOfferAccept
}

// Validate checks the transaction shape.
func (o *OfferAccept) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.Buyer == "" {
		return ErrMissingField
	}
	if _, err := crypto.DecodeAddress(o.Buyer); err != nil {
		return ErrMissingField
	}
	_, err := decodeMint(o.NFTMint)
	return err
}

// Flatten returns the flat field map.
func (o *OfferAccept) Flatten() map[string]any {
	return o.commonFields(map[string]any{
		"TokenTag": o.TokenTag,
		"Buyer":    o.Buyer,
		"NFTMint":  o.NFTMint,
		"SellID":   o.SellID,
	}, TypeOfferAccept)
}

// Apply settles the listing against the offer.
func (o *OfferAccept) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}

	mint, _ := decodeMint(o.NFTMint)
	buyer, _ := crypto.DecodeAddress(o.Buyer)

	sellKey := keylet.Sell(ctx.AccountID, mint)
	data, err := ctx.View.Read(sellKey)
	if err != nil {
		return TefINTERNAL
	}
	if data == nil {
		return TecNO_ENTRY
	}
	sell, err := entry.ParseSell(data)
	if err != nil {
		return TefINTERNAL
	}
	if sell.Seller != ctx.AccountID {
		return TecUNAUTHORIZED
	}
	if !sell.Active {
		return TecLISTING_INACTIVE
	}
	if sell.ID != o.SellID {
		return TecLISTING_MISMATCH
	}
	if sell.TokenTag != o.TokenTag {
		return TecLISTING_MISMATCH
	}

	offerKey := keylet.Offer(buyer, mint, o.SellID)
	data, err = ctx.View.Read(offerKey)
	if err != nil {
		return TefINTERNAL
	}
	if data == nil {
		return TecNO_ENTRY
	}
	offer, err := entry.ParseOffer(data)
	if err != nil {
		return TefINTERNAL
	}
	if offer.TokenTag != o.TokenTag {
		return TecLISTING_MISMATCH
	}

	tc, err := readTokenConfig(ctx.View, o.TokenTag)
	if err != nil {
		return TefINTERNAL
	}
	if tc == nil {
		return TecNO_ENTRY
	}

	fee := TradeFee(offer.Amount, cfg.TradeFeeRate)
	payMint := paymentMint(tc)

	// The escrow is already in the vault; only the seller's share
	// leaves it.
	if err := debitAt(ctx.View, keylet.TokenVault(o.TokenTag), offer.Amount-fee); err != nil {
		return TefINTERNAL
	}
	if err := creditToken(ctx.View, ctx.AccountID, payMint, offer.Amount-fee); err != nil {
		return TefINTERNAL
	}

	tc.FeeAccrued += fee
	if err := ctx.View.Update(keylet.TokenConfig(o.TokenTag), tc.Serialize()); err != nil {
		return TefINTERNAL
	}

	if err := debitAt(ctx.View, keylet.NFTVault(mint), 1); err != nil {
		return TefINTERNAL
	}
	if err := creditToken(ctx.View, buyer, mint, 1); err != nil {
		return TefINTERNAL
	}

	sell.Active = false
	if err := ctx.View.Update(sellKey, sell.Serialize()); err != nil {
		return TefINTERNAL
	}

	if err := ctx.View.Erase(offerKey); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
