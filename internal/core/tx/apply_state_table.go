package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
)

// Action represents the type of modification to a ledger entry.
type Action int

const (
	// ActionCache means the entry was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new entry was created.
	ActionInsert
	// ActionModify means an existing entry was modified.
	ActionModify
	// ActionErase means an entry was deleted.
	ActionErase
)

// TrackedEntry is a ledger entry being tracked for changes.
type TrackedEntry struct {
	Type     entry.Type
	Action   Action
	Original []byte // state in the base view (nil for inserts)
	Current  []byte // state in the overlay (last state before deletion for erases)
}

// AffectedNode describes one ledger entry touched by a transaction.
type AffectedNode struct {
	NodeType  string `json:"NodeType"` // CreatedNode, ModifiedNode or DeletedNode
	EntryType string `json:"EntryType"`
	Key       string `json:"Key"`
}

// Metadata is the record of everything a transaction changed.
type Metadata struct {
	AffectedNodes []AffectedNode `json:"AffectedNodes"`
	Result        string         `json:"TransactionResult"`
}

// ApplyStateTable wraps a LedgerView and buffers every modification made
// while a transaction runs. Nothing reaches the base view until Apply();
// a failed transaction simply discards the table, so each transaction is
// atomic against the ledger.
type ApplyStateTable struct {
	base   LedgerView
	items  map[[32]byte]*TrackedEntry
	txHash [32]byte
}

// NewApplyStateTable creates a state table over the given base view.
func NewApplyStateTable(base LedgerView, txHash [32]byte) *ApplyStateTable {
	return &ApplyStateTable{
		base:   base,
		items:  make(map[[32]byte]*TrackedEntry),
		txHash: txHash,
	}
}

// Read reads a ledger entry, tracking it as cached.
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if e, ok := t.items[k.Key]; ok {
		if e.Action == ActionErase {
			return nil, nil
		}
		return e.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Type:     k.Type,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks whether an entry exists.
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, ok := t.items[k.Key]; ok {
		return e.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry.
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.Action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting a deleted entry becomes a modify.
		e.Action = ActionModify
		e.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:    k.Type,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry.
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.Action == ActionErase {
			return fmt.Errorf("entry not found (deleted)")
		}
		if e.Action == ActionCache {
			e.Action = ActionModify
		}
		// Inserts stay inserts, just with new data.
		e.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry not found")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k.Type,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry.
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, ok := t.items[k.Key]; ok {
		if e.Action == ActionErase {
			return fmt.Errorf("entry already deleted")
		}
		if e.Action == ActionInsert {
			// Insert then delete within one transaction is a no-op.
			delete(t.items, k.Key)
			return nil
		}
		e.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry not found")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k.Type,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach iterates over the base view. Overlay changes are not visible;
// this is only used by read paths that run outside a transaction.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	return t.base.ForEach(fn)
}

// Apply commits all buffered changes to the base view and returns the
// generated metadata. Node order is deterministic (sorted by key).
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	keys := make([][32]byte, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	meta := &Metadata{AffectedNodes: make([]AffectedNode, 0, len(keys))}
	for _, key := range keys {
		e := t.items[key]
		k := keylet.Keylet{Type: e.Type, Key: key}

		switch e.Action {
		case ActionCache:
			continue

		case ActionInsert:
			if err := t.base.Insert(k, e.Current); err != nil {
				return nil, err
			}
			meta.AffectedNodes = append(meta.AffectedNodes, t.node("CreatedNode", e, key))

		case ActionModify:
			if bytes.Equal(e.Original, e.Current) {
				continue
			}
			if err := t.base.Update(k, e.Current); err != nil {
				return nil, err
			}
			meta.AffectedNodes = append(meta.AffectedNodes, t.node("ModifiedNode", e, key))

		case ActionErase:
			if err := t.base.Erase(k); err != nil {
				return nil, err
			}
			meta.AffectedNodes = append(meta.AffectedNodes, t.node("DeletedNode", e, key))
		}
	}
	return meta, nil
}

func (t *ApplyStateTable) node(nodeType string, e *TrackedEntry, key [32]byte) AffectedNode {
	return AffectedNode{
		NodeType:  nodeType,
		EntryType: e.Type.String(),
		Key:       strings.ToUpper(hex.EncodeToString(key[:])),
	}
}
