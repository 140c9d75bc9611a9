package tx

import (
	"encoding/hex"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

// LedgerView is the interface transactors use to read and mutate state.
// The engine hands transactors an ApplyStateTable; the committed ledger
// and test harness provide base implementations.
type LedgerView interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// EngineConfig holds options controlling how the engine applies transactions.
type EngineConfig struct {
	// SkipSignatureVerification disables signature checks. Only ever set
	// in standalone mode and tests.
	SkipSignatureVerification bool

	// Standalone indicates the node runs without peers and accepts
	// unsigned submissions.
	Standalone bool
}

// ApplyResult is the outcome of applying one transaction.
type ApplyResult struct {
	Result   Result
	Applied  bool
	TxHash   [32]byte
	Metadata *Metadata
	Message  string
}

// Engine applies transactions to a ledger view.
type Engine struct {
	config EngineConfig
}

// NewEngine creates a transaction engine.
func NewEngine(config EngineConfig) *Engine {
	return &Engine{config: config}
}

// Apply runs the full pipeline for one transaction against the given view:
// preflight (stateless checks), preclaim (sender and signature checks
// against committed state), then doApply inside a buffered state table
// that commits only on success.
func (e *Engine) Apply(view LedgerView, txn Transaction) ApplyResult {
	txHash := Hash(txn)
	res := ApplyResult{Result: TesSUCCESS, TxHash: txHash}

	if r := e.preflight(txn); r != TesSUCCESS {
		res.Result = r
		res.Message = r.Message()
		return res
	}

	accountID, r := e.preclaim(view, txn)
	if r != TesSUCCESS {
		res.Result = r
		res.Message = r.Message()
		return res
	}

	table := NewApplyStateTable(view, txHash)
	ctx := &ApplyContext{
		View:      table,
		AccountID: accountID,
		Config:    e.config,
		TxHash:    txHash,
	}

	appliable, ok := txn.(Appliable)
	if !ok {
		res.Result = TefINTERNAL
		res.Message = res.Result.Message()
		return res
	}

	r = appliable.Apply(ctx)
	res.Result = r
	res.Message = r.Message()
	if !r.IsSuccess() {
		return res
	}

	meta, err := table.Apply()
	if err != nil {
		res.Result = TefINTERNAL
		res.Message = err.Error()
		return res
	}
	meta.Result = r.String()
	res.Applied = true
	res.Metadata = meta
	return res
}

// preflight runs the stateless checks: common fields plus the
// transactor's own Validate.
func (e *Engine) preflight(txn Transaction) Result {
	common := txn.GetCommon()
	if common.Account == "" {
		return TemBAD_SRC_ACCOUNT
	}
	if _, err := crypto.DecodeAddress(common.Account); err != nil {
		return TemBAD_SRC_ACCOUNT
	}
	if err := txn.Validate(); err != nil {
		return resultFromValidation(err)
	}
	return TesSUCCESS
}

// preclaim checks the transaction against committed state: the sender
// must hold a native wallet (MarketSetup bootstraps and is exempt), and
// the signature must verify unless the engine is configured otherwise.
func (e *Engine) preclaim(view LedgerView, txn Transaction) (crypto.AccountID, Result) {
	common := txn.GetCommon()
	accountID, err := crypto.DecodeAddress(common.Account)
	if err != nil {
		return accountID, TemBAD_SRC_ACCOUNT
	}

	if txn.TxType() != TypeMarketSetup {
		exists, err := view.Exists(keylet.Wallet(accountID, entry.NativeMint))
		if err != nil {
			return accountID, TefINTERNAL
		}
		if !exists {
			return accountID, TerNO_ACCOUNT
		}
	}

	if !e.config.SkipSignatureVerification {
		if r := verifySignature(txn, accountID); r != TesSUCCESS {
			return accountID, r
		}
	}
	return accountID, TesSUCCESS
}

// verifySignature checks that the signing key belongs to the sender and
// that the signature covers the canonical signing payload.
func verifySignature(txn Transaction, sender crypto.AccountID) Result {
	common := txn.GetCommon()
	if common.SigningPubKey == "" || common.TxnSignature == "" {
		return TefBAD_SIGNATURE
	}
	pubKey, err := hex.DecodeString(common.SigningPubKey)
	if err != nil {
		return TefBAD_SIGNATURE
	}
	if crypto.CalcAccountID(pubKey) != sender {
		return TefBAD_SIGNATURE
	}
	sig, err := hex.DecodeString(common.TxnSignature)
	if err != nil {
		return TefBAD_SIGNATURE
	}
	if !crypto.Verify(pubKey, SigningPayload(txn), sig) {
		return TefBAD_SIGNATURE
	}
	return TesSUCCESS
}

// resultFromValidation maps a Validate error onto its tem code.
func resultFromValidation(err error) Result {
	switch err {
	case ErrMissingAccount:
		return TemBAD_SRC_ACCOUNT
	case ErrBadAmount:
		return TemBAD_AMOUNT
	case ErrBadMint:
		return TemINVALID
	case ErrBadFeeRate:
		return TemBAD_FEE_RATE
	}
	return TemMALFORMED
}
