package txjournal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalAppendAndLookup(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rec := Record{
		Hash:      "ABCD1234",
		TxType:    "SellStart",
		Account:   "MAliceAddress",
		LedgerSeq: 3,
		Result:    "tesSUCCESS",
		TxJSON:    []byte(`{"TransactionType":"SellStart"}`),
		MetaJSON:  []byte(`{"AffectedNodes":[]}`),
		AppliedAt: time.Now(),
	}
	if err := j.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := j.Lookup(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.TxType != "SellStart" || got.LedgerSeq != 3 || got.Result != "tesSUCCESS" {
		t.Fatalf("lookup mismatch: %+v", got)
	}

	if _, err := j.Lookup(ctx, "FFFF"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing hash: %v, want ErrNotFound", err)
	}
}

func TestJournalHistoryOrderAndLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		rec := Record{
			Hash:      string(rune('A' + i)),
			TxType:    "Buy",
			Account:   "MAliceAddress",
			LedgerSeq: uint64(i),
			Result:    "tesSUCCESS",
			TxJSON:    []byte("{}"),
			MetaJSON:  []byte("{}"),
			AppliedAt: time.Now(),
		}
		if err := j.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	hist, err := j.History(ctx, "MAliceAddress", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len = %d, want 3", len(hist))
	}
	if hist[0].LedgerSeq != 5 || hist[2].LedgerSeq != 3 {
		t.Fatalf("history not newest first: %+v", hist)
	}

	other, err := j.History(ctx, "MUnknown", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("unexpected history for unknown account: %+v", other)
	}

	n, err := j.Count(ctx)
	if err != nil || n != 5 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestJournalDuplicateHashRejected(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rec := Record{
		Hash: "DUP", TxType: "Buy", Account: "M1", LedgerSeq: 1,
		Result: "tesSUCCESS", TxJSON: []byte("{}"), MetaJSON: []byte("{}"),
		AppliedAt: time.Now(),
	}
	if err := j.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(ctx, rec); err == nil {
		t.Fatal("duplicate hash accepted")
	}
}
