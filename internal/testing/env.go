// Package testing provides a self-contained test environment for
// marketplace transaction testing: a fresh ledger, deterministic
// accounts, direct funding, and signed submission with result checks.
package testing

import (
	"testing"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/core/ledger"
	"github.com/cgc-labs/marketd/internal/core/tx"
	"github.com/cgc-labs/marketd/internal/crypto"
)

// TestEnv manages a ledger and engine for transaction tests. All
// submissions are fully signed; the engine runs with signature
// verification on, so tests exercise the same path as production.
type TestEnv struct {
	t        *testing.T
	ledger   *ledger.Ledger
	engine   *tx.Engine
	accounts map[string]*Account
}

// NewTestEnv creates a test environment over an empty ledger.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:        t,
		ledger:   ledger.New(),
		engine:   tx.NewEngine(tx.EngineConfig{}),
		accounts: make(map[string]*Account),
	}
}

// Account returns the named test account, creating it on first use.
func (env *TestEnv) Account(name string) *Account {
	if acc, ok := env.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	env.accounts[name] = acc
	return acc
}

// Ledger exposes the underlying ledger for direct inspection.
func (env *TestEnv) Ledger() *ledger.Ledger {
	return env.ledger
}

// Fund writes a balance directly into an account's wallet, creating the
// wallet if needed. This stands in for a genesis allocation.
func (env *TestEnv) Fund(acc *Account, mint entry.MintID, amount uint64) {
	env.t.Helper()
	k := keylet.Wallet(acc.ID, mint)
	data, err := env.ledger.Read(k)
	if err != nil {
		env.t.Fatalf("fund %s: %v", acc.Name, err)
	}
	ta := entry.TokenAccount{Holder: acc.ID, Mint: mint, Balance: amount}
	if data == nil {
		err = env.ledger.Insert(k, ta.Serialize())
	} else {
		err = env.ledger.Update(k, ta.Serialize())
	}
	if err != nil {
		env.t.Fatalf("fund %s: %v", acc.Name, err)
	}
}

// FundNative gives the account a native wallet holding amount.
func (env *TestEnv) FundNative(acc *Account, amount uint64) {
	env.t.Helper()
	env.Fund(acc, entry.NativeMint, amount)
}

// GiveNFT mints one unit of an NFT into the account's wallet.
func (env *TestEnv) GiveNFT(acc *Account, mint entry.MintID) {
	env.t.Helper()
	env.Fund(acc, mint, 1)
}

// Submit signs the transaction with the account's key and applies it.
func (env *TestEnv) Submit(acc *Account, txn tx.Transaction) tx.ApplyResult {
	env.t.Helper()
	tx.Sign(txn, acc.Keys)
	res := env.engine.Apply(env.ledger, txn)
	if res.Applied {
		env.ledger.Advance()
	}
	return res
}

// Balance returns the account's wallet balance for a mint. A missing
// wallet reads as zero.
func (env *TestEnv) Balance(acc *Account, mint entry.MintID) uint64 {
	env.t.Helper()
	return env.balanceAt(keylet.Wallet(acc.ID, mint))
}

// NativeBalance returns the account's native balance.
func (env *TestEnv) NativeBalance(acc *Account) uint64 {
	env.t.Helper()
	return env.Balance(acc, entry.NativeMint)
}

// VaultBalance returns the payment vault balance for a token tag.
func (env *TestEnv) VaultBalance(tag byte) uint64 {
	env.t.Helper()
	return env.balanceAt(keylet.TokenVault(tag))
}

// NFTVaultBalance returns the custody vault balance for an NFT mint.
func (env *TestEnv) NFTVaultBalance(mint entry.MintID) uint64 {
	env.t.Helper()
	return env.balanceAt(keylet.NFTVault(mint))
}

func (env *TestEnv) balanceAt(k keylet.Keylet) uint64 {
	env.t.Helper()
	data, err := env.ledger.Read(k)
	if err != nil {
		env.t.Fatalf("read %x: %v", k.Key, err)
	}
	if data == nil {
		return 0
	}
	ta, err := entry.ParseTokenAccount(data)
	if err != nil {
		env.t.Fatalf("parse token account %x: %v", k.Key, err)
	}
	return ta.Balance
}

// MarketConfig returns the config singleton; the marketplace must be
// set up.
func (env *TestEnv) MarketConfig() *entry.Config {
	env.t.Helper()
	data, err := env.ledger.Read(keylet.Config())
	if err != nil || data == nil {
		env.t.Fatalf("market config missing (err=%v)", err)
	}
	cfg, err := entry.ParseConfig(data)
	if err != nil {
		env.t.Fatalf("parse config: %v", err)
	}
	return cfg
}

// TokenConfig returns the token config for a tag, or nil.
func (env *TestEnv) TokenConfig(tag byte) *entry.TokenConfig {
	env.t.Helper()
	data, err := env.ledger.Read(keylet.TokenConfig(tag))
	if err != nil {
		env.t.Fatalf("read token config: %v", err)
	}
	if data == nil {
		return nil
	}
	tc, err := entry.ParseTokenConfig(data)
	if err != nil {
		env.t.Fatalf("parse token config: %v", err)
	}
	return tc
}

// Listing returns the sell entry for a seller and mint, or nil.
func (env *TestEnv) Listing(acc *Account, mint entry.MintID) *entry.Sell {
	env.t.Helper()
	data, err := env.ledger.Read(keylet.Sell(acc.ID, mint))
	if err != nil {
		env.t.Fatalf("read listing: %v", err)
	}
	if data == nil {
		return nil
	}
	sell, err := entry.ParseSell(data)
	if err != nil {
		env.t.Fatalf("parse listing: %v", err)
	}
	return sell
}

// Offer returns the offer entry for a buyer, mint and listing ID, or nil.
func (env *TestEnv) Offer(acc *Account, mint entry.MintID, sellID uint64) *entry.Offer {
	env.t.Helper()
	data, err := env.ledger.Read(keylet.Offer(acc.ID, mint, sellID))
	if err != nil {
		env.t.Fatalf("read offer: %v", err)
	}
	if data == nil {
		return nil
	}
	offer, err := entry.ParseOffer(data)
	if err != nil {
		env.t.Fatalf("parse offer: %v", err)
	}
	return offer
}

// ProtocolID returns the vault-holding protocol account.
func (env *TestEnv) ProtocolID() crypto.AccountID {
	return tx.ProtocolID
}
