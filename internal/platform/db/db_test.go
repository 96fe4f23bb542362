package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	_, err = sqldb.ExecContext(ctx, `CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	_, err = sqldb.ExecContext(ctx, `CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)

	err = WithTx(ctx, sqldb, func(ctx context.Context) error {
		_, err := Conn(ctx, sqldb).ExecContext(ctx, `INSERT INTO t (x) VALUES (1)`)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(ctx, sqldb, func(ctx context.Context) error {
		if _, err := Conn(ctx, sqldb).ExecContext(ctx, `INSERT INTO t (x) VALUES (2)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, sqldb.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	require.Equal(t, 1, n, "rolled-back insert must not persist")
}

func TestConn_PrefersTx(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	require.Nil(t, TxFromContext(ctx))
	require.NotNil(t, Conn(ctx, sqldb))

	err = WithTx(ctx, sqldb, func(ctx context.Context) error {
		require.NotNil(t, TxFromContext(ctx))
		return nil
	})
	require.NoError(t, err)
}

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644))
}

func TestMigrator_UpAndStatus(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "001_first.sql", `CREATE TABLE a (x INTEGER);`)
	writeMigration(t, dir, "002_second.sql", `CREATE TABLE b (y INTEGER);`)
	writeMigration(t, dir, "README.md", `not a migration`)

	m := NewMigrator(sqldb, dir)

	count, err := m.Up(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Re-running applies nothing.
	count, err = m.Up(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		require.True(t, st.Applied)
		require.NotNil(t, st.AppliedAt)
	}
}

func TestMigrator_CorruptAppliedAtSurfaces(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "001_first.sql", `CREATE TABLE a (x INTEGER);`)

	m := NewMigrator(sqldb, dir)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	// A mangled applied_at must error, not read as the zero time.
	_, err = sqldb.ExecContext(ctx, `UPDATE _migrations SET applied_at = 'garbage' WHERE version = 1`)
	require.NoError(t, err)

	_, err = m.Status(ctx)
	require.ErrorContains(t, err, "applied_at")

	_, err = m.Up(ctx)
	require.ErrorContains(t, err, "applied_at")
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	sqldb, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer sqldb.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "001_bad.sql", `CREATE TABLE a (x INTEGER); THIS IS NOT SQL;`)

	m := NewMigrator(sqldb, dir)
	_, err = m.Up(ctx)
	require.Error(t, err)

	// The failed migration must not be recorded as applied.
	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Applied)
}
