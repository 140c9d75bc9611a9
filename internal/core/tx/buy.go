package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

func init() {
	Register(TypeBuy, func() Transaction {
		return &Buy{}
	})
}

// Buy settles an active listing at its asking price. The buyer pays the
// full price; the protocol fee stays in the payment vault and the
// remainder goes to the seller. The NFT leaves custody for the buyer.
type Buy struct {
	BaseTx

	// TokenTag must match the listing's payment asset (required).
	TokenTag uint8 `json:"TokenTag"`

	// Seller is the address of the listing's seller (required).
	Seller string `json:"Seller"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`
}

// NewBuy creates a Buy transaction.
func NewBuy(account string, tag uint8, seller, nftMint string) *Buy {
	return &Buy{BaseTx: NewBaseTx(account), TokenTag: tag, Seller: seller, NFTMint: nftMint}
}

// TxType returns the transaction type.
func (b *Buy) TxType() Type {
	return TypeBuy
}

// Validate checks the transaction shape.
func (b *Buy) Validate() error {
	if err := b.BaseTx.Validate(); err != nil {
		return err
	}
	if b.Seller == "" {
		return ErrMissingField
	}
	if _, err := crypto.DecodeAddress(b.Seller); err != nil {
		return ErrMissingField
	}
	_, err := decodeMint(b.NFTMint)
	return err
}

// Flatten returns the flat field map.
func (b *Buy) Flatten() map[string]any {
	return b.commonFields(map[string]any{
		"TokenTag": b.TokenTag,
		"Seller":   b.Seller,
		"NFTMint":  b.NFTMint,
	}, TypeBuy)
}

// Apply settles the listing.
func (b *Buy) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}

	seller, _ := crypto.DecodeAddress(b.Seller)
	mint, _ := decodeMint(b.NFTMint)

	sellKey := keylet.Sell(seller, mint)
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
	if !sell.Active {
		return TecLISTING_INACTIVE
	}
	if sell.TokenTag != b.TokenTag {
		return TecLISTING_MISMATCH
	}

	tc, err := readTokenConfig(ctx.View, b.TokenTag)
	if err != nil {
		return TefINTERNAL
	}
	if tc == nil {
		return TecNO_ENTRY
	}

	payMint := paymentMint(tc)
	balance, err := balanceOf(ctx.View, ctx.AccountID, payMint)
	if err != nil {
		return TefINTERNAL
	}
	if balance < sell.Price {
		return TecINSUFFICIENT_FUNDS
	}

	fee := TradeFee(sell.Price, cfg.TradeFeeRate)

	// The full price routes through the vault: the fee stays there,
	// the rest continues to the seller.
	if err := debitToken(ctx.View, ctx.AccountID, payMint, sell.Price); err != nil {
		return TefINTERNAL
	}
	vaultKey := keylet.TokenVault(b.TokenTag)
	if err := creditAt(ctx.View, vaultKey, ProtocolID, payMint, sell.Price); err != nil {
		return TefINTERNAL
	}
	if err := debitAt(ctx.View, vaultKey, sell.Price-fee); err != nil {
		return TefINTERNAL
	}
	if err := creditToken(ctx.View, seller, payMint, sell.Price-fee); err != nil {
		return TefINTERNAL
	}

	tc.FeeAccrued += fee
	if err := ctx.View.Update(keylet.TokenConfig(b.TokenTag), tc.Serialize()); err != nil {
		return TefINTERNAL
	}

	if err := debitAt(ctx.View, keylet.NFTVault(mint), 1); err != nil {
		return TefINTERNAL
	}
	if err := creditToken(ctx.View, ctx.AccountID, mint, 1); err != nil {
		return TefINTERNAL
	}

	sell.Active = false
	if err := ctx.View.Update(sellKey, sell.Serialize()); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
