package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
)

func init() {
	Register(TypeMarketSetup, func() Transaction {
		return &MarketSetup{}
	})
}

// MarketSetup initializes the marketplace: it creates the config
// singleton recording the sender as owner along with the trade fee rate.
// The marketplace can only be set up once.
type MarketSetup struct {
	BaseTx

	// FeeRateBps is the trade fee rate in basis points (required, max 10000).
	FeeRateBps uint64 `json:"FeeRateBps"`
}

// NewMarketSetup creates a MarketSetup transaction.
func NewMarketSetup(account string, feeRateBps uint64) *MarketSetup {
	return &MarketSetup{BaseTx: NewBaseTx(account), FeeRateBps: feeRateBps}
}

// TxType returns the transaction type.
func (m *MarketSetup) TxType() Type {
	return TypeMarketSetup
}

// Validate checks the transaction shape.
func (m *MarketSetup) Validate() error {
	if err := m.BaseTx.Validate(); err != nil {
		return err
	}
	if m.FeeRateBps > MaxFeeRateBps {
		return ErrBadFeeRate
	}
	return nil
}

// Flatten returns the flat field map.
func (m *MarketSetup) Flatten() map[string]any {
	return m.commonFields(map[string]any{
		"FeeRateBps": m.FeeRateBps,
	}, TypeMarketSetup)
}

// Apply creates the config singleton.
func (m *MarketSetup) Apply(ctx *ApplyContext) Result {
	exists, err := ctx.View.Exists(keylet.Config())
	if err != nil {
		return TefINTERNAL
	}
	if exists {
		return TecDUPLICATE
	}

	cfg := entry.Config{
		Owner:        ctx.AccountID,
		TradeFeeRate: m.FeeRateBps,
		NextSellID:   1,
		NextOfferID:  1,
	}
	if err := ctx.View.Insert(keylet.Config(), cfg.Serialize()); err != nil {
		return TefINTERNAL
	}

	// Bootstrap: the owner gets a native wallet so later transactions
	// from this account pass the account-exists check.
	if err := creditToken(ctx.View, ctx.AccountID, entry.NativeMint, 0); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
