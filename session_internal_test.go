package dbsession

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestCommit_ReleasesTransactionCommands(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	s, err := Open(ctx, db)
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.Execute(ctx, "CREATE TABLE t (a INTEGER)")
	require.NoError(t, err)
	require.Len(t, s.commands, 1)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	_, err = s.Execute(ctx, "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	_, err = Scalar[int](ctx, s, "SELECT count(*) FROM t")
	require.NoError(t, err)
	require.Len(t, s.txCommands, 2)
	assert.Len(t, s.commands, 1, "commands in a transaction are tracked separately")

	held := append([]*command(nil), s.txCommands...)
	require.NoError(t, s.CommitTransaction(ctx))
	assert.Empty(t, s.txCommands)

	for _, c := range held {
		assert.True(t, c.released)
		_, err := c.stmt.ExecContext(ctx)
		assert.Error(t, err, "released command %q must be unusable", c.text)
	}

	n, err := Scalar[int](ctx, s, "SELECT count(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "session stays usable after commit")
	assert.Len(t, s.commands, 2)
}

func TestRollback_ReleasesTransactionCommands(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	s, err := Open(ctx, db)
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.Execute(ctx, "CREATE TABLE t (a INTEGER)")
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	_, err = s.Execute(ctx, "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	_, err = Scalar[int](ctx, s, "SELECT count(*) FROM t")
	require.NoError(t, err)
	require.Len(t, s.txCommands, 2)

	held := append([]*command(nil), s.txCommands...)
	require.NoError(t, s.RollbackTransaction(ctx))
	assert.Empty(t, s.txCommands)
	assert.Nil(t, s.tx)

	for _, c := range held {
		assert.True(t, c.released)
		_, err := c.stmt.ExecContext(ctx)
		assert.Error(t, err, "released command %q must be unusable", c.text)
	}

	n, err := Scalar[int](ctx, s, "SELECT count(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "session stays usable after rollback")
	assert.Len(t, s.commands, 2)
}

func TestClose_ReleasesEverything(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	s, err := Open(ctx, db)
	require.NoError(t, err)

	_, err = Scalar[int](ctx, s, "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, s.BeginTransaction(ctx, sql.LevelDefault))
	_, err = Scalar[int](ctx, s, "SELECT 2")
	require.NoError(t, err)

	held := append(append([]*command(nil), s.commands...), s.txCommands...)
	require.NoError(t, s.Close(ctx))

	assert.True(t, s.closed)
	assert.Nil(t, s.tx)
	assert.Empty(t, s.commands)
	assert.Empty(t, s.txCommands)
	for _, c := range held {
		assert.True(t, c.released, c.text)
	}
}
