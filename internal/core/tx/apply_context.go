package tx

import (
	"github.com/cgc-labs/marketd/internal/crypto"
)

// ApplyContext carries everything a transactor needs while applying.
type ApplyContext struct {
	// View is the buffered ledger view the transactor mutates.
	View LedgerView

	// AccountID is the decoded sender account.
	AccountID crypto.AccountID

	// Config holds engine options in effect for this apply.
	Config EngineConfig

	// TxHash is the hash of the transaction being applied.
	TxHash [32]byte
}
