// Package db owns the embedded SQLite store: opening it, running schema
// migrations, and threading transactions through context so services can
// compose multiple repositories into one atomic unit.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// TimeLayout is the canonical on-disk format for row timestamps. Timestamps
// are written by the Go layer, not by SQL defaults, so natural-key equality
// on date_and_time is an exact string match.
const TimeLayout = "2006-01-02T15:04:05.999999999Z"

// DateLayout is the on-disk format for admission dates.
const DateLayout = "2006-01-02"

// Open opens (creating if absent) the SQLite database at path. The store is
// single-writer: the connection pool is capped at one connection, and SQLite
// itself serializes writers behind the busy timeout.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return sqldb, nil
}

// OpenMemory opens a private in-memory database. Used by tests.
func OpenMemory(ctx context.Context) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping in-memory database: %w", err)
	}
	return sqldb, nil
}
