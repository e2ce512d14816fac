// Package audit persists an append-only history of emitted ExecutionReports
// to SQLite (§12.5), adapted from the teacher's market-data persistence
// pattern: a prepared statement reused across calls, each write wrapped in a
// transaction with a deferred rollback guard and an explicit commit.
package audit

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/primefix/fix-engine/internal/fxerr"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS execution_reports (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id     INTEGER NOT NULL,
	cl_ord_id    TEXT NOT NULL,
	exec_type    TEXT NOT NULL,
	ord_status   TEXT NOT NULL,
	symbol       TEXT NOT NULL,
	side         TEXT NOT NULL,
	quantity     TEXT NOT NULL,
	price        TEXT NOT NULL,
	transact_time TEXT NOT NULL,
	recorded_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

const insertReportQuery = `
INSERT INTO execution_reports
	(order_id, cl_ord_id, exec_type, ord_status, symbol, side, quantity, price, transact_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Record is one row of the append-only execution report trail (§3 AuditRecord).
type Record struct {
	OrderID      uint64
	ClOrdID      string
	ExecType     string
	OrdStatus    string
	Symbol       string
	Side         string
	Quantity     string
	Price        string
	TransactTime string
}

// Trail is the SQLite-backed audit sink. A nil *Trail is valid and silently
// discards every Record, so callers need not branch on whether an audit_store
// was configured (§6).
type Trail struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// Open creates or opens the SQLite database at dsn in WAL mode and prepares
// the insert statement. An empty dsn returns a nil *Trail (audit disabled).
func Open(dsn string) (*Trail, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, &fxerr.IoError{Detail: "opening audit store " + dsn, Cause: err}
	}

	if _, err := db.Exec(createTableQuery); err != nil {
		_ = db.Close()
		return nil, &fxerr.IoError{Detail: "creating audit schema", Cause: err}
	}

	stmt, err := db.Prepare(insertReportQuery)
	if err != nil {
		_ = db.Close()
		return nil, &fxerr.IoError{Detail: "preparing audit insert statement", Cause: err}
	}

	return &Trail{db: db, stmt: stmt}, nil
}

// Close releases the prepared statement and the underlying connection.
func (t *Trail) Close() error {
	if t == nil {
		return nil
	}
	_ = t.stmt.Close()
	return t.db.Close()
}

// Record inserts r inside its own transaction: commit on success, rollback
// (via defer, ignored once committed) on any failure.
func (t *Trail) Record(r Record) error {
	if t == nil {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return &fxerr.IoError{Detail: "beginning audit transaction", Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Stmt(t.stmt).Exec(
		r.OrderID, r.ClOrdID, r.ExecType, r.OrdStatus, r.Symbol, r.Side, r.Quantity, r.Price, r.TransactTime,
	); err != nil {
		return &fxerr.IoError{Detail: "inserting execution report audit record", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &fxerr.IoError{Detail: "committing audit transaction", Cause: err}
	}
	return nil
}

// Count returns the number of rows recorded, for diagnostics and tests.
func (t *Trail) Count() (int, error) {
	if t == nil {
		return 0, nil
	}
	var n int
	if err := t.db.QueryRow("SELECT COUNT(*) FROM execution_reports").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting audit records: %w", err)
	}
	return n, nil
}
