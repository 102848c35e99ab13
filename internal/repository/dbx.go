package repository

import (
	"context"
	"database/sql"
)

// dbtx is the subset of database operations shared by *sql.DB and *sql.Tx.
// Repository helpers that must run both standalone and inside the
// commit-time re-check transaction take a dbtx instead of duplicating
// query code per variant.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
