package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransitionLog represents a single recorded lifecycle transition.
type TransitionLog struct {
	ID         int64
	EventID    uuid.UUID
	Module     string
	Ref        string
	Actor      string
	FromStatus string
	ToStatus   string
	At         time.Time
}

// TransitionRecorder persists lifecycle transition history.
type TransitionRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransitionRecorder constructs a TransitionRecorder.
func NewTransitionRecorder(pool *pgxpool.Pool, logger *slog.Logger) *TransitionRecorder {
	return &TransitionRecorder{pool: pool, logger: logger}
}

// Record writes a transition entry. Failures are logged, not propagated: the
// audit trail must not veto a transition that already committed.
func (r *TransitionRecorder) Record(ctx context.Context, entry TransitionLog) error {
	if r == nil || r.pool == nil {
		return errors.New("transition recorder not initialised")
	}
	if entry.Module == "" {
		return errors.New("transition module required")
	}
	if entry.EventID == uuid.Nil {
		entry.EventID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO lifecycle_transitions (event_id, module, ref, actor, from_status, to_status, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.EventID, entry.Module, entry.Ref, entry.Actor, entry.FromStatus, entry.ToStatus, entry.At)
	if err != nil && r.logger != nil {
		r.logger.Error("record transition", slog.Any("error", err), slog.String("module", entry.Module), slog.String("ref", entry.Ref))
	}
	return err
}
