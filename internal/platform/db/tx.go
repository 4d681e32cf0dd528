package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/shared"
)

// Executor is the subset of pgx methods shared by pools and transactions.
// Repositories resolve one per call so the same code runs inside or outside
// a transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// WithTx executes fn within a RepeatableRead transaction carried on the
// context. Nested calls join the outer transaction instead of opening a new
// one, which is what lets a completion span appointment, ledger and billing
// repositories atomically.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return translate(fmt.Errorf("platform/db: begin tx: %w", err))
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("platform/db: commit tx: %w", err))
	}

	return nil
}

// TxFrom returns the transaction carried by ctx, or nil.
func TxFrom(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// ExecutorFrom returns the ambient transaction when present, otherwise pool.
func ExecutorFrom(ctx context.Context, pool *pgxpool.Pool) Executor {
	if tx := TxFrom(ctx); tx != nil {
		return tx
	}
	return pool
}

// AdvisoryXactLock takes a transaction-scoped advisory lock for (class, key).
// Released automatically at commit or rollback.
func AdvisoryXactLock(ctx context.Context, ex Executor, class int32, key int64) error {
	if _, err := ex.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, class, foldLockKey(key)); err != nil {
		return fmt.Errorf("platform/db: advisory lock %d/%d: %w", class, key, err)
	}
	return nil
}

// foldLockKey mixes the high half of a 64-bit ID into the int4 lock key so
// IDs differing only above 32 bits do not share a lock.
func foldLockKey(key int64) int32 {
	return int32(key ^ (key >> 32))
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// translate maps store-level failures onto the transient error kind so
// callers can retry with fresh state.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if shared.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.Wrap(shared.KindStoreTimeout, "store transaction timed out", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57014" {
		return shared.Wrap(shared.KindStoreTimeout, "store statement canceled", err)
	}
	return err
}

// Runner abstracts transaction execution so services can be tested against
// in-memory repositories.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgRunner runs functions inside PostgreSQL transactions.
type PgRunner struct {
	pool *pgxpool.Pool
}

// NewRunner constructs a PgRunner.
func NewRunner(pool *pgxpool.Pool) *PgRunner {
	return &PgRunner{pool: pool}
}

// InTx implements Runner.
func (r *PgRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.pool, fn)
}
