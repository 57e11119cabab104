package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Repository abstracts ledger order persistence so the service can be tested
// against an in-memory double.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Latest(ctx context.Context) (*Order, error)
	ByTitle(ctx context.Context, title string) (*Order, error)
}

// TxRepository exposes the mutations available inside a transaction. Reads
// take row locks so concurrent transitions on the same order serialise.
type TxRepository interface {
	LatestForUpdate(ctx context.Context) (*Order, error)
	ByTitleForUpdate(ctx context.Context, title string) (*Order, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, title string, status Status) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// PGRepository provides PostgreSQL backed persistence for ledger orders.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository over the given pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("ledger: repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(ctx, &pgTxRepository{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, title, status, created_at, updated_at`

// Latest returns the most recently created order, or nil when none exists.
// "Most recent" means highest id: creation order, not title order.
func (r *PGRepository) Latest(ctx context.Context) (*Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM ledger_orders ORDER BY id DESC LIMIT 1`)
	return scanOrder(row)
}

// ByTitle returns the order with the given business title.
func (r *PGRepository) ByTitle(ctx context.Context, title string) (*Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM ledger_orders WHERE title = $1`, title)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.NewNotFound("ledger order", title)
	}
	return order, nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) LatestForUpdate(ctx context.Context) (*Order, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM ledger_orders ORDER BY id DESC LIMIT 1 FOR UPDATE`)
	return scanOrder(row)
}

func (t *pgTxRepository) ByTitleForUpdate(ctx context.Context, title string) (*Order, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM ledger_orders WHERE title = $1 FOR UPDATE`, title)
	return scanOrder(row)
}

func (t *pgTxRepository) TitleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_orders WHERE title = $1)`, title).Scan(&exists)
	return exists, err
}

func (t *pgTxRepository) Insert(ctx context.Context, title string, status Status) (*Order, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO ledger_orders (title, status, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())
		 RETURNING `+orderColumns, title, status)
	order, err := scanOrder(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("ledger order %q: %w", title, shared.ErrDuplicateTitle)
		}
		return nil, err
	}
	return order, nil
}

func (t *pgTxRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE ledger_orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("ledger order", fmt.Sprintf("%d", id))
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.Title, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
