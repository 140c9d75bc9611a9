// Package txjournal records every applied transaction in a relational
// database so the RPC layer can answer tx and history queries after a
// restart. SQLite is the default; PostgreSQL is available for shared
// deployments.
package txjournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned when a transaction hash is not in the journal.
var ErrNotFound = errors.New("transaction not found")

// Record is one journaled transaction.
type Record struct {
	Hash      string    // hex transaction hash
	TxType    string    // canonical transaction type name
	Account   string    // sender address
	LedgerSeq uint64    // ledger sequence the transaction committed at
	Result    string    // result code name
	TxJSON    []byte    // canonical transaction serialization
	MetaJSON  []byte    // apply metadata
	AppliedAt time.Time // wall clock at apply
}

// Config selects the journal driver and DSN.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is the driver-specific connection string. For sqlite this is
	// the database file path (or ":memory:").
	DSN string
}

// Journal is a relational transaction log.
type Journal struct {
	db     *sql.DB
	driver string
}

// rebind converts ? placeholders to the $N form postgres expects.
// SQLite takes ? natively.
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}
	var out []byte
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	hash        TEXT PRIMARY KEY,
	tx_type     TEXT NOT NULL,
	account     TEXT NOT NULL,
	ledger_seq  BIGINT NOT NULL,
	result      TEXT NOT NULL,
	tx_json     TEXT NOT NULL,
	meta_json   TEXT NOT NULL,
	applied_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account, ledger_seq);
CREATE INDEX IF NOT EXISTS idx_transactions_seq ON transactions (ledger_seq);
`

// Open opens the journal and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Journal, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}
	dsn := cfg.DSN
	if driver == "sqlite" && dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s journal: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db, driver: driver}, nil
}

// Append records one applied transaction.
func (j *Journal) Append(ctx context.Context, rec Record) error {
	_, err := j.db.ExecContext(ctx, j.rebind(
		`INSERT INTO transactions
		 (hash, tx_type, account, ledger_seq, result, tx_json, meta_json, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.Hash, rec.TxType, rec.Account, rec.LedgerSeq,
		rec.Result, string(rec.TxJSON), string(rec.MetaJSON), rec.AppliedAt.UTC())
	return err
}

// Lookup fetches a transaction by its hex hash.
func (j *Journal) Lookup(ctx context.Context, hash string) (*Record, error) {
	row := j.db.QueryRowContext(ctx, j.rebind(
		`SELECT hash, tx_type, account, ledger_seq, result, tx_json, meta_json, applied_at
		 FROM transactions WHERE hash = ?`), hash)
	return scanRecord(row)
}

// History returns the most recent transactions for an account, newest
// first, up to limit.
func (j *Journal) History(ctx context.Context, account string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := j.db.QueryContext(ctx, j.rebind(
		`SELECT hash, tx_type, account, ledger_seq, result, tx_json, meta_json, applied_at
		 FROM transactions WHERE account = ?
		 ORDER BY ledger_seq DESC LIMIT ?`), account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Count returns the number of journaled transactions.
func (j *Journal) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var txJSON, metaJSON string
	err := row.Scan(&rec.Hash, &rec.TxType, &rec.Account, &rec.LedgerSeq,
		&rec.Result, &txJSON, &metaJSON, &rec.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.TxJSON = []byte(txJSON)
	rec.MetaJSON = []byte(metaJSON)
	return &rec, nil
}
