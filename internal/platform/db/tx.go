package db

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// AcquireScopeLock takes a transaction-scoped advisory lock keyed by the given
// scope string. It serialises read-max-then-insert sequences per scope; the
// lock is released automatically at commit or rollback.
func AcquireScopeLock(ctx context.Context, tx pgx.Tx, scope string) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scope))
	key := int64(h.Sum64())
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
		return fmt.Errorf("platform/db: scope lock %q: %w", scope, err)
	}
	return nil
}
