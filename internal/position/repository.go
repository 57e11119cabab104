package position

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/codes"
	"github.com/meridian-grc/meridian-grc/internal/platform/db"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Repository abstracts concurrent group persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	List(ctx context.Context) ([]ConcurrentGroup, error)
	ByCode(ctx context.Context, code string) (*ConcurrentGroup, error)
}

// TxRepository exposes code allocation and the group insert in one transaction.
type TxRepository interface {
	NextCode(ctx context.Context, spec codes.Spec) (string, error)
	InsertGroup(ctx context.Context, g ConcurrentGroup) (*ConcurrentGroup, error)
}

// PGRepository provides PostgreSQL backed persistence for concurrent groups.
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
		return errors.New("position: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// List returns all concurrent groups with their member position ids.
func (r *PGRepository) List(ctx context.Context) ([]ConcurrentGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.code, g.name, g.created_at, COALESCE(array_agg(m.position_id) FILTER (WHERE m.position_id IS NOT NULL), '{}')
		 FROM position_concurrent_groups g
		 LEFT JOIN position_concurrent_members m ON m.group_code = g.code
		 GROUP BY g.code, g.name, g.created_at
		 ORDER BY g.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConcurrentGroup
	for rows.Next() {
		var g ConcurrentGroup
		if err := rows.Scan(&g.Code, &g.Name, &g.CreatedAt, &g.PositionIDs); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ByCode returns one concurrent group.
func (r *PGRepository) ByCode(ctx context.Context, code string) (*ConcurrentGroup, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT g.code, g.name, g.created_at, COALESCE(array_agg(m.position_id) FILTER (WHERE m.position_id IS NOT NULL), '{}')
		 FROM position_concurrent_groups g
		 LEFT JOIN position_concurrent_members m ON m.group_code = g.code
		 WHERE g.code = $1
		 GROUP BY g.code, g.name, g.created_at`, code)
	var g ConcurrentGroup
	if err := row.Scan(&g.Code, &g.Name, &g.CreatedAt, &g.PositionIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NewNotFound("concurrent group", code)
		}
		return nil, err
	}
	return &g, nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) NextCode(ctx context.Context, spec codes.Spec) (string, error) {
	if err := db.AcquireScopeLock(ctx, t.tx, spec.Prefix()); err != nil {
		return "", err
	}
	return codes.NewAllocator(codes.NewPGSource(t.tx)).Next(ctx, spec)
}

func (t *pgTxRepository) InsertGroup(ctx context.Context, g ConcurrentGroup) (*ConcurrentGroup, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO position_concurrent_groups (code, name, created_at)
		 VALUES ($1, $2, NOW()) RETURNING created_at`, g.Code, g.Name)
	if err := row.Scan(&g.CreatedAt); err != nil {
		return nil, err
	}
	for _, id := range g.PositionIDs {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO position_concurrent_members (group_code, position_id) VALUES ($1, $2)`,
			g.Code, id); err != nil {
			return nil, err
		}
	}
	return &g, nil
}
