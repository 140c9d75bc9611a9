// Package node wires the ledger, transaction engine, snapshot store and
// transaction journal into one running marketplace node.
package node

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cgc-labs/marketd/internal/config"
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/core/ledger"
	"github.com/cgc-labs/marketd/internal/core/tx"
	"github.com/cgc-labs/marketd/internal/crypto"
	"github.com/cgc-labs/marketd/internal/storage/store"
	"github.com/cgc-labs/marketd/internal/storage/txjournal"
)

// Node is a running marketplace node.
type Node struct {
	cfg     *config.Config
	ledger  *ledger.Ledger
	engine  *tx.Engine
	store   store.Store
	journal *txjournal.Journal

	// submitMu serializes applies so each transaction sees the state
	// the previous one committed.
	submitMu sync.Mutex

	streamMu    sync.Mutex
	subscribers map[uint64]chan TxEvent
	nextSubID   uint64
}

// New opens the node's storage, restores the last snapshot and prepares
// the engine.
func New(ctx context.Context, cfg *config.Config) (*Node, error) {
	s, err := store.Open(cfg.Store.Backend, store.Config{
		Path:      cfg.StorePath(),
		CacheSize: cfg.Store.CacheSize,
		Compress:  cfg.Store.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	l := ledger.New()
	snapshot, seq, err := store.LoadSnapshot(s)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := l.Restore(snapshot, seq); err != nil {
		s.Close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	j, err := txjournal.Open(ctx, txjournal.Config{
		Driver: cfg.Journal.Driver,
		DSN:    cfg.JournalDSN(),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	engine := tx.NewEngine(tx.EngineConfig{
		Standalone:                cfg.Engine.Standalone,
		SkipSignatureVerification: cfg.Engine.Standalone,
	})

	return &Node{
		cfg:         cfg,
		ledger:      l,
		engine:      engine,
		store:       s,
		journal:     j,
		subscribers: make(map[uint64]chan TxEvent),
	}, nil
}

// Submit decodes, applies and journals one transaction.
func (n *Node) Submit(ctx context.Context, raw []byte) (tx.ApplyResult, error) {
	txn, err := tx.Decode(raw)
	if err != nil {
		return tx.ApplyResult{}, fmt.Errorf("decode transaction: %w", err)
	}

	n.submitMu.Lock()
	defer n.submitMu.Unlock()

	res := n.engine.Apply(n.ledger, txn)
	if !res.Applied {
		return res, nil
	}

	seq := n.ledger.Advance()
	metaJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return res, fmt.Errorf("marshal metadata: %w", err)
	}
	rec := txjournal.Record{
		Hash:      strings.ToUpper(hex.EncodeToString(res.TxHash[:])),
		TxType:    txn.TxType().String(),
		Account:   txn.GetCommon().Account,
		LedgerSeq: seq,
		Result:    res.Result.String(),
		TxJSON:    raw,
		MetaJSON:  metaJSON,
		AppliedAt: time.Now(),
	}
	if err := n.journal.Append(ctx, rec); err != nil {
		return res, fmt.Errorf("journal append: %w", err)
	}
	if err := store.SaveSnapshot(n.store, n.ledger.Snapshot(), seq); err != nil {
		return res, fmt.Errorf("save snapshot: %w", err)
	}
	n.publishTx(TxEvent{
		Hash:      rec.Hash,
		TxType:    rec.TxType,
		Account:   rec.Account,
		Result:    rec.Result,
		LedgerSeq: seq,
	})
	return res, nil
}

// Ledger exposes the committed state for read-only queries.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Standalone reports whether the node runs without signature checks.
func (n *Node) Standalone() bool {
	return n.cfg.Engine.Standalone
}

// StoreName returns the snapshot backend in use.
func (n *Node) StoreName() string {
	return n.store.Name()
}

// MarketInfo returns the config singleton, or nil before setup.
func (n *Node) MarketInfo() (*entry.Config, error) {
	data, err := n.ledger.Read(keylet.Config())
	if err != nil || data == nil {
		return nil, err
	}
	return entry.ParseConfig(data)
}

// TokenInfo returns the token config for a tag, along with the vault
// balance, or nil if the tag is unregistered.
func (n *Node) TokenInfo(tag byte) (*entry.TokenConfig, uint64, error) {
	data, err := n.ledger.Read(keylet.TokenConfig(tag))
	if err != nil || data == nil {
		return nil, 0, err
	}
	tc, err := entry.ParseTokenConfig(data)
	if err != nil {
		return nil, 0, err
	}
	var vaultBal uint64
	vaultData, err := n.ledger.Read(keylet.TokenVault(tag))
	if err != nil {
		return nil, 0, err
	}
	if vaultData != nil {
		vault, err := entry.ParseTokenAccount(vaultData)
		if err != nil {
			return nil, 0, err
		}
		vaultBal = vault.Balance
	}
	return tc, vaultBal, nil
}

// Listing returns the sell entry for a seller and NFT mint, or nil.
func (n *Node) Listing(seller crypto.AccountID, mint entry.MintID) (*entry.Sell, error) {
	data, err := n.ledger.Read(keylet.Sell(seller, mint))
	if err != nil || data == nil {
		return nil, err
	}
	return entry.ParseSell(data)
}

// ListingOffers returns every open offer targeting the given listing.
func (n *Node) ListingOffers(mint entry.MintID, sellID uint64) ([]*entry.Offer, error) {
	var offers []*entry.Offer
	var scanErr error
	err := n.ledger.ForEach(func(key [32]byte, data []byte) bool {
		if n.ledger.EntryType(key) != entry.TypeOffer {
			return true
		}
		offer, err := entry.ParseOffer(data)
		if err != nil {
			scanErr = err
			return false
		}
		if offer.NFTMint == mint && offer.SellID == sellID {
			offers = append(offers, offer)
		}
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// AccountBalances returns every token balance an account holds.
func (n *Node) AccountBalances(id crypto.AccountID) ([]*entry.TokenAccount, error) {
	var accounts []*entry.TokenAccount
	var scanErr error
	err := n.ledger.ForEach(func(key [32]byte, data []byte) bool {
		if n.ledger.EntryType(key) != entry.TypeTokenAccount {
			return true
		}
		ta, err := entry.ParseTokenAccount(data)
		if err != nil {
			scanErr = err
			return false
		}
		if ta.Holder == id {
			accounts = append(accounts, ta)
		}
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Tx looks up an applied transaction by its hex hash.
func (n *Node) Tx(ctx context.Context, hash string) (*txjournal.Record, error) {
	return n.journal.Lookup(ctx, strings.ToUpper(hash))
}

// TxHistory returns an account's applied transactions, newest first.
func (n *Node) TxHistory(ctx context.Context, account string, limit int) ([]txjournal.Record, error) {
	return n.journal.History(ctx, account, limit)
}

// TxCount returns the total number of applied transactions.
func (n *Node) TxCount(ctx context.Context) (uint64, error) {
	return n.journal.Count(ctx)
}

// Close flushes the final snapshot and releases storage.
func (n *Node) Close() error {
	n.submitMu.Lock()
	defer n.submitMu.Unlock()

	var firstErr error
	if err := store.SaveSnapshot(n.store, n.ledger.Snapshot(), n.ledger.Seq()); err != nil {
		firstErr = err
	}
	if err := n.journal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := n.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
