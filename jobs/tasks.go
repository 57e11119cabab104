// Package jobs defines background notification tasks and the asynq worker
// that processes them. Lifecycle services enqueue fire-and-forget tasks; a
// failed enqueue is logged by the caller and never vetoes the transition.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerFinalized announces a ledger order reaching its terminal state.
	TaskLedgerFinalized = "ledger:finalized"
	// TaskHodConfirmed announces a department-head ledger confirmation.
	TaskHodConfirmed = "hodledger:confirmed"
)

// LifecyclePayload carries the notification subject.
type LifecyclePayload struct {
	Title string    `json:"title"`
	At    time.Time `json:"at"`
}

// NewLedgerFinalizedTask constructs the finalization notification task.
func NewLedgerFinalizedTask(title string) (*asynq.Task, error) {
	data, err := json.Marshal(LifecyclePayload{Title: title, At: time.Now()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerFinalized, data), nil
}

// NewHodConfirmedTask constructs the sub-ledger confirmation notification task.
func NewHodConfirmedTask(title string) (*asynq.Task, error) {
	data, err := json.Marshal(LifecyclePayload{Title: title, At: time.Now()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHodConfirmed, data), nil
}

// HandleLedgerFinalizedTask processes TaskLedgerFinalized tasks.
func HandleLedgerFinalizedTask(ctx context.Context, t *asynq.Task) error {
	var payload LifecyclePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Downstream delivery (mail, webhook) lives outside this module; the
	// worker records the event so operators can trace the fan-out point.
	slog.Info("ledger order finalized", slog.String("title", payload.Title), slog.Time("at", payload.At))
	return nil
}

// HandleHodConfirmedTask processes TaskHodConfirmed tasks.
func HandleHodConfirmedTask(ctx context.Context, t *asynq.Task) error {
	var payload LifecyclePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Info("hod ledger confirmed", slog.String("title", payload.Title), slog.Time("at", payload.At))
	return nil
}
