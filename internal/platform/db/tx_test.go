package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type captureExecutor struct {
	sql  string
	args []any
}

func (c *captureExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, nil
}

func (c *captureExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (c *captureExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestAdvisoryXactLockKeySpansFullID(t *testing.T) {
	ex := &captureExecutor{}
	ctx := context.Background()

	require.NoError(t, AdvisoryXactLock(ctx, ex, 1, 7))
	require.Equal(t, int32(1), ex.args[0])
	low := ex.args[1]

	// Same low 32 bits, different high bits must map to a different key.
	require.NoError(t, AdvisoryXactLock(ctx, ex, 1, 7|int64(1)<<40))
	require.NotEqual(t, low, ex.args[1])
}

func TestAdvisoryXactLockKeyStable(t *testing.T) {
	ex := &captureExecutor{}
	ctx := context.Background()

	require.NoError(t, AdvisoryXactLock(ctx, ex, 1, 42))
	first := ex.args[1]
	require.NoError(t, AdvisoryXactLock(ctx, ex, 1, 42))
	require.Equal(t, first, ex.args[1])
}

func TestNewRejectsMalformedDSN(t *testing.T) {
	_, err := New(context.Background(), "://not-a-dsn")
	require.Error(t, err)
}
