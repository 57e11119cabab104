package hodledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/ledger"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Repository abstracts sub-ledger persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	List(ctx context.Context) ([]Ledger, error)
	ByID(ctx context.Context, id int64) (*Ledger, error)
}

// TxRepository exposes row-locked reads and mutations inside a transaction.
// The parent ledger order is read through the same transaction so the
// terminal-state gate cannot race with a concurrent order transition.
type TxRepository interface {
	LatestForUpdate(ctx context.Context) (*Ledger, error)
	ByIDForUpdate(ctx context.Context, id int64) (*Ledger, error)
	LatestOrderForUpdate(ctx context.Context) (*ledger.Order, error)
	ExistsForOrder(ctx context.Context, ledgerOrderID int64) (bool, error)
	Insert(ctx context.Context, ledgerOrderID int64, title string, status Status) (*Ledger, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// PGRepository provides PostgreSQL backed persistence for sub-ledgers.
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
		return fmt.Errorf("hodledger: repository not initialised")
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

const hodColumns = `id, ledger_order_id, title, status, created_at, updated_at`

// List returns all sub-ledgers, most recent first.
func (r *PGRepository) List(ctx context.Context) ([]Ledger, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+hodColumns+` FROM hod_ledgers ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ledger
	for rows.Next() {
		var l Ledger
		if err := rows.Scan(&l.ID, &l.LedgerOrderID, &l.Title, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ByID returns one sub-ledger.
func (r *PGRepository) ByID(ctx context.Context, id int64) (*Ledger, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+hodColumns+` FROM hod_ledgers WHERE id = $1`, id)
	l, err := scanLedger(row)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, shared.NewNotFound("hod ledger", fmt.Sprintf("%d", id))
	}
	return l, nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) LatestForUpdate(ctx context.Context) (*Ledger, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+hodColumns+` FROM hod_ledgers ORDER BY id DESC LIMIT 1 FOR UPDATE`)
	return scanLedger(row)
}

func (t *pgTxRepository) ByIDForUpdate(ctx context.Context, id int64) (*Ledger, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+hodColumns+` FROM hod_ledgers WHERE id = $1 FOR UPDATE`, id)
	return scanLedger(row)
}

func (t *pgTxRepository) LatestOrderForUpdate(ctx context.Context) (*ledger.Order, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT id, title, status, created_at, updated_at
		 FROM ledger_orders ORDER BY id DESC LIMIT 1 FOR UPDATE`)
	var o ledger.Order
	if err := row.Scan(&o.ID, &o.Title, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (t *pgTxRepository) ExistsForOrder(ctx context.Context, ledgerOrderID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hod_ledgers WHERE ledger_order_id = $1)`, ledgerOrderID).Scan(&exists)
	return exists, err
}

func (t *pgTxRepository) Insert(ctx context.Context, ledgerOrderID int64, title string, status Status) (*Ledger, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO hod_ledgers (ledger_order_id, title, status, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING `+hodColumns, ledgerOrderID, title, status)
	l, err := scanLedger(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("hod ledger %q: %w", title, shared.ErrDuplicateTitle)
		}
		return nil, err
	}
	return l, nil
}

func (t *pgTxRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE hod_ledgers SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("hod ledger", fmt.Sprintf("%d", id))
	}
	return nil
}

func scanLedger(row pgx.Row) (*Ledger, error) {
	var l Ledger
	if err := row.Scan(&l.ID, &l.LedgerOrderID, &l.Title, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
