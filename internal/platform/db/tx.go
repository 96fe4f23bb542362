package db

import (
	"context"
	"database/sql"
	"fmt"
)

type contextKey string

const txKey contextKey = "tx"

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run their statements against a Queryer so the same code works
// inside and outside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey).(*sql.Tx)
	return tx
}

// Conn resolves the Queryer for ctx: the in-flight transaction if one is
// present, otherwise the plain handle.
func Conn(ctx context.Context, sqldb *sql.DB) Queryer {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return sqldb
}

// WithTx begins a transaction, places it in the context passed to fn, and
// commits if fn returns nil. Any error from fn (or from commit) rolls the
// whole unit back.
func WithTx(ctx context.Context, sqldb *sql.DB, fn func(ctx context.Context) error) error {
	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
