// Package storage provides SQLite persistence for the back-office order system.
//
// The package defines the Storage interface covering customers, products,
// orders and order items, plus a Tx interface for grouping writes into a
// single transaction. SQLiteStorage is the only implementation; it opens
// the database in WAL mode with foreign keys enabled and applies versioned
// schema migrations on startup.
//
// Monetary amounts are stored as TEXT and converted to decimal.Decimal on
// scan, so values round-trip without floating point drift. Orders and
// products use soft deletion: reads exclude rows with a deleted_at
// timestamp unless the caller asks for them explicitly.
//
// Two SQLite drivers are supported via build tags: the default pure Go
// driver (modernc.org/sqlite) and the cgo driver (mattn/go-sqlite3) behind
// the sqlite_cgo tag.
package storage
