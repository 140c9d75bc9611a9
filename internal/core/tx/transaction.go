package tx

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/crypto"
)

// Common validation errors surfaced from Validate().
var (
	ErrMissingAccount = errors.New("temBAD_SRC_ACCOUNT: Account is required")
	ErrBadAmount      = errors.New("temBAD_AMOUNT: amount must be positive")
	ErrBadMint        = errors.New("temINVALID: malformed mint")
	ErrBadFeeRate     = errors.New("temBAD_FEE_RATE: fee rate above 10000 basis points")
	ErrMissingField   = errors.New("temMALFORMED: required field missing")
)

// Transaction is the interface all marketplace transaction types implement.
type Transaction interface {
	// TxType returns the transaction type.
	TxType() Type

	// GetCommon returns the common transaction fields.
	GetCommon() *Common

	// Validate checks the stateless shape of the transaction.
	Validate() error

	// Flatten returns a flat field map used for canonical serialization.
	Flatten() map[string]any
}

// Appliable is implemented by transaction types that apply themselves to
// ledger state. Every registered type implements it.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common holds the fields shared by every transaction.
type Common struct {
	// Account is the sender's address.
	Account string `json:"Account"`

	// SigningPubKey is the hex-encoded compressed public key of the signer.
	SigningPubKey string `json:"SigningPubKey,omitempty"`

	// TxnSignature is the hex-encoded signature over the signing payload.
	TxnSignature string `json:"TxnSignature,omitempty"`
}

// BaseTx provides the Common fields and shared behavior for transaction types.
type BaseTx struct {
	Common
}

// NewBaseTx creates the shared base for a transaction from an account address.
func NewBaseTx(account string) BaseTx {
	return BaseTx{Common: Common{Account: account}}
}

// GetCommon returns the common transaction fields.
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate checks the common fields.
func (b *BaseTx) Validate() error {
	if b.Account == "" {
		return ErrMissingAccount
	}
	return nil
}

// commonFields merges the common fields into a transactor's field map.
func (b *BaseTx) commonFields(m map[string]any, txType Type) map[string]any {
	m["TransactionType"] = txType.String()
	m["Account"] = b.Account
	if b.SigningPubKey != "" {
		m["SigningPubKey"] = b.SigningPubKey
	}
	if b.TxnSignature != "" {
		m["TxnSignature"] = b.TxnSignature
	}
	return m
}

// Registry of transaction constructors, keyed by type. Transactors register
// themselves in init().
var registry = make(map[Type]func() Transaction)

// Register adds a transaction constructor for a type.
func Register(t Type, factory func() Transaction) {
	registry[t] = factory
}

// New constructs an empty transaction of the given type.
func New(t Type) (Transaction, error) {
	factory, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("unknown transaction type %q", t)
	}
	return factory(), nil
}

// Decode unmarshals raw JSON into the transaction type named by its
// TransactionType field. This is the submit path of the RPC server.
func Decode(raw []byte) (Transaction, error) {
	var head struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	t := TypeFromName(head.TransactionType)
	if t == TypeUnknown {
		return nil, fmt.Errorf("unknown transaction type %q", head.TransactionType)
	}
	txn, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// canonicalSerialize produces a deterministic byte encoding of a field map:
// keys sorted, JSON values. Both signing and hashing run over this form.
func canonicalSerialize(fields map[string]any) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(fields[k])
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}')
}

// SigningPayload returns the canonical bytes a signer commits to: every
// field except the signature itself.
func SigningPayload(t Transaction) []byte {
	fields := t.Flatten()
	delete(fields, "TxnSignature")
	return canonicalSerialize(fields)
}

// Sign fills in SigningPubKey and TxnSignature using the given keypair.
// The keypair must belong to the transaction's Account.
func Sign(t Transaction, kp *crypto.KeyPair) {
	common := t.GetCommon()
	common.SigningPubKey = hex.EncodeToString(kp.PublicKey())
	common.TxnSignature = hex.EncodeToString(kp.Sign(SigningPayload(t)))
}

// Hash computes the transaction hash: Sha512Half over the "TXN\x00" prefix
// plus the full canonical serialization (signature included).
func Hash(t Transaction) [32]byte {
	prefix := []byte{0x54, 0x58, 0x4E, 0x00}
	return crypto.Sha512Half(prefix, canonicalSerialize(t.Flatten()))
}

// decodeMint parses a hex mint field. The empty string is the native mint.
func decodeMint(s string) (entry.MintID, error) {
	var m entry.MintID
	if s == "" || s == "native" {
		return entry.NativeMint, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != entry.MintIDSize {
		return m, ErrBadMint
	}
	copy(m[:], raw)
	return m, nil
}
