package responsibility

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

// Repository abstracts responsibility persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListByOrder(ctx context.Context, ledgerOrderID int64) ([]Responsibility, error)
	DetailsFor(ctx context.Context, responsibilityCode string) ([]Detail, error)
	ObligationsFor(ctx context.Context, detailCode string) ([]Obligation, error)
	ManualsFor(ctx context.Context, obligationCode string) ([]Manual, error)
}

// TxRepository exposes code allocation and inserts inside one transaction.
// NextCode serialises per allocation scope, so two concurrent creates under
// the same parent cannot observe the same maximum.
type TxRepository interface {
	OrderTitle(ctx context.Context, ledgerOrderID int64) (string, error)
	NextCode(ctx context.Context, spec codes.Spec) (string, error)
	InsertResponsibility(ctx context.Context, r Responsibility) (*Responsibility, error)
	InsertDetail(ctx context.Context, d Detail) (*Detail, error)
	InsertObligation(ctx context.Context, o Obligation) (*Obligation, error)
	InsertManual(ctx context.Context, m Manual) (*Manual, error)
}

// PGRepository provides PostgreSQL backed persistence for the aggregate.
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
		return errors.New("responsibility: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// ListByOrder returns responsibilities under a ledger order, code ascending.
func (r *PGRepository) ListByOrder(ctx context.Context, ledgerOrderID int64) ([]Responsibility, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, ledger_order_id, category, content, created_at, updated_at
		 FROM responsibilities WHERE ledger_order_id = $1 ORDER BY code`, ledgerOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Responsibility
	for rows.Next() {
		var v Responsibility
		if err := rows.Scan(&v.Code, &v.LedgerOrderID, &v.Category, &v.Content, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DetailsFor returns details of a responsibility, code ascending.
func (r *PGRepository) DetailsFor(ctx context.Context, responsibilityCode string) ([]Detail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, responsibility_code, content, created_at, updated_at
		 FROM responsibility_details WHERE responsibility_code = $1 ORDER BY code`, responsibilityCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Detail
	for rows.Next() {
		var v Detail
		if err := rows.Scan(&v.Code, &v.ResponsibilityCode, &v.Content, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ObligationsFor returns obligations of a detail, code ascending.
func (r *PGRepository) ObligationsFor(ctx context.Context, detailCode string) ([]Obligation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, detail_code, org_code, content, created_at, updated_at
		 FROM management_obligations WHERE detail_code = $1 ORDER BY code`, detailCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Obligation
	for rows.Next() {
		var v Obligation
		if err := rows.Scan(&v.Code, &v.DetailCode, &v.OrgCode, &v.Content, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ManualsFor returns manuals of an obligation, code ascending.
func (r *PGRepository) ManualsFor(ctx context.Context, obligationCode string) ([]Manual, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, obligation_code, content, created_at, updated_at
		 FROM dept_manager_manuals WHERE obligation_code = $1 ORDER BY code`, obligationCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Manual
	for rows.Next() {
		var v Manual
		if err := rows.Scan(&v.Code, &v.ObligationCode, &v.Content, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
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

func (t *pgTxRepository) InsertResponsibility(ctx context.Context, r Responsibility) (*Responsibility, error) {
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	_, err := t.tx.Exec(ctx,
		`INSERT INTO responsibilities (code, ledger_order_id, category, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.Code, r.LedgerOrderID, r.Category, r.Content, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *pgTxRepository) InsertDetail(ctx context.Context, d Detail) (*Detail, error) {
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := t.tx.Exec(ctx,
		`INSERT INTO responsibility_details (code, responsibility_code, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.Code, d.ResponsibilityCode, d.Content, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *pgTxRepository) InsertObligation(ctx context.Context, o Obligation) (*Obligation, error) {
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := t.tx.Exec(ctx,
		`INSERT INTO management_obligations (code, detail_code, org_code, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.Code, o.DetailCode, o.OrgCode, o.Content, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *pgTxRepository) InsertManual(ctx context.Context, m Manual) (*Manual, error) {
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := t.tx.Exec(ctx,
		`INSERT INTO dept_manager_manuals (code, obligation_code, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.Code, m.ObligationCode, m.Content, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
