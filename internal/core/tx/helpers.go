package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

// ProtocolID is the account that holds every escrow vault. It has no
// private key; the ID is derived from a fixed label so every node agrees
// on it without coordination.
var ProtocolID = crypto.CalcAccountID([]byte("marketd:protocol:v1"))

// readConfig loads the marketplace config singleton, or nil if the
// marketplace has not been set up.
func readConfig(view LedgerView) (*entry.Config, error) {
	data, err := view.Read(keylet.Config())
	if err != nil || data == nil {
		return nil, err
	}
	return entry.ParseConfig(data)
}

// writeConfig persists the config singleton over its existing entry.
func writeConfig(view LedgerView, cfg *entry.Config) error {
	return view.Update(keylet.Config(), cfg.Serialize())
}

// readTokenConfig loads the token config for a type tag, or nil if the
// tag is unregistered.
func readTokenConfig(view LedgerView, tag byte) (*entry.TokenConfig, error) {
	data, err := view.Read(keylet.TokenConfig(tag))
	if err != nil || data == nil {
		return nil, err
	}
	return entry.ParseTokenConfig(data)
}

// paymentMint resolves the mint settlement moves for a token config.
func paymentMint(tc *entry.TokenConfig) entry.MintID {
	if tc.Asset.IsNative() {
		return entry.NativeMint
	}
	return tc.Asset.Mint
}

// balanceAt returns the balance of the token account at k. A missing
// account reads as zero.
func balanceAt(view LedgerView, k keylet.Keylet) (uint64, error) {
	data, err := view.Read(k)
	if err != nil || data == nil {
		return 0, err
	}
	ta, err := entry.ParseTokenAccount(data)
	if err != nil {
		return 0, err
	}
	return ta.Balance, nil
}

// creditAt adds amount to the token account at k, creating it for the
// given holder and mint if it does not exist yet.
func creditAt(view LedgerView, k keylet.Keylet, holder crypto.AccountID, mint entry.MintID, amount uint64) error {
	data, err := view.Read(k)
	if err != nil {
		return err
	}
	if data == nil {
		ta := entry.TokenAccount{Holder: holder, Mint: mint, Balance: amount}
		return view.Insert(k, ta.Serialize())
	}
	ta, err := entry.ParseTokenAccount(data)
	if err != nil {
		return err
	}
	ta.Balance += amount
	return view.Update(k, ta.Serialize())
}

// debitAt removes amount from the token account at k. Callers verify
// sufficiency first; underflow here is an internal error, not a tec.
func debitAt(view LedgerView, k keylet.Keylet, amount uint64) error {
	data, err := view.Read(k)
	if err != nil {
		return err
	}
	if data == nil {
		return errBalanceUnderflow
	}
	ta, err := entry.ParseTokenAccount(data)
	if err != nil {
		return err
	}
	if ta.Balance < amount {
		return errBalanceUnderflow
	}
	ta.Balance -= amount
	return view.Update(k, ta.Serialize())
}

// balanceOf returns the holder's wallet balance for a mint.
func balanceOf(view LedgerView, holder crypto.AccountID, mint entry.MintID) (uint64, error) {
	return balanceAt(view, keylet.Wallet(holder, mint))
}

// creditToken adds amount to the holder's wallet for a mint.
func creditToken(view LedgerView, holder crypto.AccountID, mint entry.MintID, amount uint64) error {
	return creditAt(view, keylet.Wallet(holder, mint), holder, mint, amount)
}

// debitToken removes amount from the holder's wallet for a mint.
func debitToken(view LedgerView, holder crypto.AccountID, mint entry.MintID, amount uint64) error {
	return debitAt(view, keylet.Wallet(holder, mint), amount)
}
