package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

func init() {
	Register(TypeSellStart, func() Transaction {
		return &SellStart{}
	})
	Register(TypeSellUpdate, func() Transaction {
		return &SellUpdate{}
	})
	Register(TypeSellClose, func() Transaction {
		return &SellClose{}
	})
}

// SellStart lists an NFT for sale. The NFT moves from the seller's
// wallet into the protocol NFT vault and stays there until the listing
// is settled or closed.
type SellStart struct {
	BaseTx

	// NFTMint is the hex mint of the NFT to list (required).
	NFTMint string `json:"NFTMint"`

	// Price is the asking price in the payment asset's units (required).
	Price uint64 `json:"Price"`

	// TokenTag selects the registered payment asset (required).
	TokenTag uint8 `json:"TokenTag"`
}

// NewSellStart creates a SellStart transaction.
func NewSellStart(account, nftMint string, price uint64, tag uint8) *SellStart {
	return &SellStart{BaseTx: NewBaseTx(account), NFTMint: nftMint, Price: price, TokenTag: tag}
}

// TxType returns the transaction type.
func (s *SellStart) TxType() Type {
	return TypeSellStart
}

// Validate checks the transaction shape.
func (s *SellStart) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	mint, err := decodeMint(s.NFTMint)
	if err != nil {
		return err
	}
	if mint.IsNative() {
		return ErrBadMint
	}
	if s.Price == 0 {
		return ErrBadAmount
	}
	return nil
}

// Flatten returns the flat field map.
func (s *SellStart) Flatten() map[string]any {
	return s.commonFields(map[string]any{
		"NFTMint":  s.NFTMint,
		"Price":    s.Price,
		"TokenTag": s.TokenTag,
	}, TypeSellStart)
}

// Apply creates the listing and moves the NFT into custody.
func (s *SellStart) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}

	tc, err := readTokenConfig(ctx.View, s.TokenTag)
	if err != nil {
		return TefINTERNAL
	}
	if tc == nil {
		return TecNO_ENTRY
	}

	mint, _ := decodeMint(s.NFTMint)
	balance, err := balanceOf(ctx.View, ctx.AccountID, mint)
	if err != nil {
		return TefINTERNAL
	}
	if balance < 1 {
		return TecINSUFFICIENT_FUNDS
	}

	sellKey := keylet.Sell(ctx.AccountID, mint)
	data, err := ctx.View.Read(sellKey)
	if err != nil {
		return TefINTERNAL
	}

	sell := entry.Sell{
		ID:       cfg.NextSellID,
		Seller:   ctx.AccountID,
		NFTMint:  mint,
		Price:    s.Price,
		TokenTag: s.TokenTag,
		Active:   true,
	}
	if data != nil {
		prev, err := entry.ParseSell(data)
		if err != nil {
			return TefINTERNAL
		}
		if prev.Active {
			return TecDUPLICATE
		}
		// Closed listing of the same NFT by the same seller: the entry
		// is reused under a fresh listing ID.
		if err := ctx.View.Update(sellKey, sell.Serialize()); err != nil {
			return TefINTERNAL
		}
	} else {
		if err := ctx.View.Insert(sellKey, sell.Serialize()); err != nil {
			return TefINTERNAL
		}
	}

	cfg.NextSellID++
	if err := writeConfig(ctx.View, cfg); err != nil {
		return TefINTERNAL
	}

	if err := debitToken(ctx.View, ctx.AccountID, mint, 1); err != nil {
		return TefINTERNAL
	}
	if err := creditAt(ctx.View, keylet.NFTVault(mint), ProtocolID, mint, 1); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// SellUpdate changes the asking price of an active listing. The payment
// asset is fixed at listing time; the provided tag must match.
type SellUpdate struct {
	BaseTx

	// Seller is the address of the listing's seller (required).
	Seller string `json:"Seller"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`

	// Price is the new asking price (required).
	Price uint64 `json:"Price"`

	// TokenTag must match the listing's payment asset (required).
	TokenTag uint8 `json:"TokenTag"`
}

// NewSellUpdate creates a SellUpdate transaction.
func NewSellUpdate(account, seller, nftMint string, price uint64, tag uint8) *SellUpdate {
	return &SellUpdate{BaseTx: NewBaseTx(account), Seller: seller, NFTMint: nftMint, Price: price, TokenTag: tag}
}

// TxType returns the transaction type.
func (s *SellUpdate) TxType() Type {
	return TypeSellUpdate
}

// Validate checks the transaction shape.
func (s *SellUpdate) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.Seller == "" {
		return ErrMissingField
	}
	if _, err := crypto.DecodeAddress(s.Seller); err != nil {
		return ErrMissingField
	}
	if _, err := decodeMint(s.NFTMint); err != nil {
		return err
	}
	if s.Price == 0 {
		return ErrBadAmount
	}
	return nil
}

// Flatten returns the flat field map.
func (s *SellUpdate) Flatten() map[string]any {
	return s.commonFields(map[string]any{
		"Seller":   s.Seller,
		"NFTMint":  s.NFTMint,
		"Price":    s.Price,
		"TokenTag": s.TokenTag,
	}, TypeSellUpdate)
}

// Apply reprices the listing.
func (s *SellUpdate) Apply(ctx *ApplyContext) Result {
	seller, _ := crypto.DecodeAddress(s.Seller)
	mint, _ := decodeMint(s.NFTMint)
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
	if sell.Seller != ctx.AccountID {
		return TecUNAUTHORIZED
	}
	if !sell.Active {
		return TecLISTING_INACTIVE
	}
	if sell.TokenTag != s.TokenTag {
		return TecLISTING_MISMATCH
	}

	sell.Price = s.Price
	if err := ctx.View.Update(sellKey, sell.Serialize()); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// SellClose takes an active listing off the market and returns the NFT
// to the seller. The listing entry stays behind, deactivated, so a
// late Buy fails cleanly rather than reporting a missing listing.
type SellClose struct {
	BaseTx

	// Seller is the address of the listing's seller (required).
	Seller string `json:"Seller"`

	// NFTMint is the hex mint of the listed NFT (required).
	NFTMint string `json:"NFTMint"`
}

// NewSellClose creates a SellClose transaction.
func NewSellClose(account, seller, nftMint string) *SellClose {
	return &SellClose{BaseTx: NewBaseTx(account), Seller: seller, NFTMint: nftMint}
}

// TxType returns the transaction type.
func (s *SellClose) TxType() Type {
	return TypeSellClose
}

// Validate checks the transaction shape.
func (s *SellClose) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.Seller == "" {
		return ErrMissingField
	}
	if _, err := crypto.DecodeAddress(s.Seller); err != nil {
		return ErrMissingField
	}
	_, err := decodeMint(s.NFTMint)
	return err
}

// Flatten returns the flat field map.
func (s *SellClose) Flatten() map[string]any {
	return s.commonFields(map[string]any{
		"Seller":  s.Seller,
		"NFTMint": s.NFTMint,
	}, TypeSellClose)
}

// Apply deactivates the listing and releases the NFT.
func (s *SellClose) Apply(ctx *ApplyContext) Result {
	seller, _ := crypto.DecodeAddress(s.Seller)
	mint, _ := decodeMint(s.NFTMint)
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
	if sell.Seller != ctx.AccountID {
		return TecUNAUTHORIZED
	}
	if !sell.Active {
		return TecLISTING_INACTIVE
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
