package inspection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/codes"
	"github.com/meridian-grc/meridian-grc/internal/platform/db"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Repository abstracts inspection persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListPlans(ctx context.Context, ledgerOrderID int64) ([]Plan, error)
	ItemsFor(ctx context.Context, planCode string) ([]Item, error)
	UnapprovedCount(ctx context.Context, ledgerOrderID int64) (int, error)
}

// TxRepository exposes code allocation and mutations inside one transaction.
type TxRepository interface {
	OrderTitle(ctx context.Context, ledgerOrderID int64) (string, error)
	NextCode(ctx context.Context, spec codes.Spec) (string, error)
	InsertPlan(ctx context.Context, p Plan) (*Plan, error)
	InsertItem(ctx context.Context, i Item) (*Item, error)
	ItemForUpdate(ctx context.Context, code string) (*Item, error)
	UpdateItemStatus(ctx context.Context, code string, status ApprovalStatus) error
}

// PGRepository provides PostgreSQL backed persistence for inspections.
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
		return errors.New("inspection: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// ListPlans returns inspection plans under a ledger order, code ascending.
func (r *PGRepository) ListPlans(ctx context.Context, ledgerOrderID int64) ([]Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, ledger_order_id, name, created_at
		 FROM inspection_plans WHERE ledger_order_id = $1 ORDER BY code`, ledgerOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.Code, &p.LedgerOrderID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ItemsFor returns items of a plan, code ascending.
func (r *PGRepository) ItemsFor(ctx context.Context, planCode string) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, plan_code, content, approval_status, created_at, updated_at
		 FROM inspection_items WHERE plan_code = $1 ORDER BY code`, planCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.Code, &i.PlanCode, &i.Content, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UnapprovedCount counts items under any plan of the ledger order whose
// disposition is not APPROVED.
func (r *PGRepository) UnapprovedCount(ctx context.Context, ledgerOrderID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inspection_items i
		 JOIN inspection_plans p ON p.code = i.plan_code
		 WHERE p.ledger_order_id = $1 AND i.approval_status <> $2`,
		ledgerOrderID, ApprovalApproved).Scan(&n)
	return n, err
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) OrderTitle(ctx context.Context, ledgerOrderID int64) (string, error) {
	var title string
	err := t.tx.QueryRow(ctx,
		`SELECT title FROM ledger_orders WHERE id = $1`, ledgerOrderID).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.NewNotFound("ledger order", fmt.Sprintf("%d", ledgerOrderID))
	}
	return title, err
}

func (t *pgTxRepository) NextCode(ctx context.Context, spec codes.Spec) (string, error) {
	if err := db.AcquireScopeLock(ctx, t.tx, spec.Prefix()); err != nil {
		return "", err
	}
	return codes.NewAllocator(codes.NewPGSource(t.tx)).Next(ctx, spec)
}

func (t *pgTxRepository) InsertPlan(ctx context.Context, p Plan) (*Plan, error) {
	p.CreatedAt = time.Now()
	_, err := t.tx.Exec(ctx,
		`INSERT INTO inspection_plans (code, ledger_order_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		p.Code, p.LedgerOrderID, p.Name, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTxRepository) InsertItem(ctx context.Context, i Item) (*Item, error) {
	now := time.Now()
	i.CreatedAt, i.UpdatedAt = now, now
	_, err := t.tx.Exec(ctx,
		`INSERT INTO inspection_items (code, plan_code, content, approval_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		i.Code, i.PlanCode, i.Content, i.Status, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (t *pgTxRepository) ItemForUpdate(ctx context.Context, code string) (*Item, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT code, plan_code, content, approval_status, created_at, updated_at
		 FROM inspection_items WHERE code = $1 FOR UPDATE`, code)
	var i Item
	if err := row.Scan(&i.Code, &i.PlanCode, &i.Content, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (t *pgTxRepository) UpdateItemStatus(ctx context.Context, code string, status ApprovalStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE inspection_items SET approval_status = $2, updated_at = $3 WHERE code = $1`,
		code, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("inspection item", code)
	}
	return nil
}
