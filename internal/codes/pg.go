package codes

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGSource reads existing codes from PostgreSQL. Pass a pgx.Tx that holds the
// scope advisory lock (db.AcquireScopeLock) to make allocation linearizable
// per scope.
type PGSource struct {
	q Querier
}

// NewPGSource constructs a PGSource.
func NewPGSource(q Querier) *PGSource {
	return &PGSource{q: q}
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ExistingCodes returns all codes in table.column starting with prefix.
func (s *PGSource) ExistingCodes(ctx context.Context, table, column, prefix string) ([]string, error) {
	// Table and column names come from compile-time Specs, never user input.
	if !identPattern.MatchString(table) || !identPattern.MatchString(column) {
		return nil, fmt.Errorf("codes: invalid identifier %q.%q", table, column)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIKE $1 || '%%'`, column, table, column)
	rows, err := s.q.Query(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
