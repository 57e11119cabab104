package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Auditor records successful lifecycle transitions.
type Auditor interface {
	Record(ctx context.Context, entry shared.TransitionLog) error
}

// Notifier announces terminal lifecycle events to interested parties. The
// core only fires the event; delivery runs out of band.
type Notifier interface {
	LedgerFinalized(ctx context.Context, title string) error
}

// GenerationStatus is the read model behind the "generate next order" action.
type GenerationStatus struct {
	HasExisting   bool   `json:"hasExisting"`
	CurrentID     int64  `json:"currentId,omitempty"`
	CurrentTitle  string `json:"currentTitle,omitempty"`
	CurrentStatus Status `json:"currentStatus,omitempty"`
	CanGenerate   bool   `json:"canGenerate"`
	Message       string `json:"message"`
}

// GenerateResult describes a freshly generated ledger order.
type GenerateResult struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Status        Status `json:"status"`
	PreviousTitle string `json:"previousTitle"`
	Message       string `json:"message"`
}

// Service owns the ledger order lifecycle. Every transition is validated
// against the current persisted status inside one transaction, never against
// client-supplied state.
type Service struct {
	repo     Repository
	cache    *StatusCache
	auditor  Auditor
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	statusSF singleflight.Group
}

// NewService constructs a Service. Cache, auditor and notifier may be nil.
func NewService(repo Repository, cache *StatusCache, auditor Auditor, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		auditor:  auditor,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CheckGenerationStatus reports whether a new ledger order may be generated.
// Generation is allowed when no order exists yet or the latest order is
// finalized. The result is cached briefly and concurrent misses collapse to a
// single database read.
func (s *Service) CheckGenerationStatus(ctx context.Context) (GenerationStatus, error) {
	if status, ok := s.cache.Get(ctx); ok {
		return status, nil
	}
	v, err, _ := s.statusSF.Do(statusCacheKey, func() (any, error) {
		latest, err := s.repo.Latest(ctx)
		if err != nil {
			return GenerationStatus{}, err
		}
		status := buildGenerationStatus(latest)
		s.cache.Set(ctx, status)
		return status, nil
	})
	if err != nil {
		return GenerationStatus{}, err
	}
	return v.(GenerationStatus), nil
}

func buildGenerationStatus(latest *Order) GenerationStatus {
	if latest == nil {
		return GenerationStatus{
			HasExisting: false,
			CanGenerate: true,
			Message:     "the first ledger order can be generated",
		}
	}
	canGenerate := latest.Status == StatusFinalized
	message := "a new ledger order can be generated"
	if !canGenerate {
		message = "the current order must be finalized before a new one can be generated"
	}
	return GenerationStatus{
		HasExisting:   true,
		CurrentID:     latest.ID,
		CurrentTitle:  latest.Title,
		CurrentStatus: latest.Status,
		CanGenerate:   canGenerate,
		Message:       message,
	}
}

// GenerateNext creates the next ledger order. The latest order (by id) must
// be finalized; when no order exists at all the current year's seed title is
// used. The derived title is checked for duplicates even though derivation
// should guarantee uniqueness.
func (s *Service) GenerateNext(ctx context.Context) (GenerateResult, error) {
	var result GenerateResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		latest, err := tx.LatestForUpdate(ctx)
		if err != nil {
			return err
		}

		if latest == nil {
			title := SeedTitle(s.now())
			created, err := tx.Insert(ctx, title, StatusDraft)
			if err != nil {
				return err
			}
			result = GenerateResult{
				ID:            created.ID,
				Title:         created.Title,
				Status:        created.Status,
				PreviousTitle: "",
				Message:       fmt.Sprintf("first ledger order '%s' created", created.Title),
			}
			return nil
		}

		if latest.Status != StatusFinalized {
			return shared.NewInvalidState("generateNext", string(StatusFinalized), string(latest.Status))
		}

		title := NextTitle(latest.Title, s.now())
		exists, err := tx.TitleExists(ctx, title)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("ledger order %q: %w", title, shared.ErrDuplicateTitle)
		}

		created, err := tx.Insert(ctx, title, StatusDraft)
		if err != nil {
			return err
		}
		result = GenerateResult{
			ID:            created.ID,
			Title:         created.Title,
			Status:        created.Status,
			PreviousTitle: latest.Title,
			Message:       fmt.Sprintf("ledger order '%s' created", created.Title),
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	s.cache.Invalidate(ctx)
	s.audit(ctx, result.Title, "", StatusDraft)
	s.logger.Info("ledger order generated",
		slog.String("title", result.Title),
		slog.String("previous", result.PreviousTitle))
	return result, nil
}

// GetIDByTitle resolves a ledger order id from its business title.
func (s *Service) GetIDByTitle(ctx context.Context, title string) (int64, error) {
	order, err := s.repo.ByTitle(ctx, title)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

// Confirm advances a draft order to position-confirmed (P1 -> P2).
func (s *Service) Confirm(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpConfirm, title, "ledger order '%s' confirmed")
}

// CancelConfirm reverts position confirmation (P2 -> P1).
func (s *Service) CancelConfirm(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpCancelConfirm, title, "ledger order '%s' confirmation cancelled")
}

// ConfirmResponsibility advances to responsibility-confirmed (P2 -> P3).
func (s *Service) ConfirmResponsibility(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpConfirmResponsibility, title, "position responsibilities for '%s' confirmed")
}

// CancelResponsibility reverts responsibility confirmation (P3 -> P2).
func (s *Service) CancelResponsibility(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpCancelResponsibility, title, "position responsibility confirmation for '%s' cancelled")
}

// ConfirmExecutive advances to executive-confirmed (P3 -> P4).
func (s *Service) ConfirmExecutive(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpConfirmExecutive, title, "executives for '%s' confirmed")
}

// CancelExecutive reverts executive confirmation (P4 -> P3).
func (s *Service) CancelExecutive(ctx context.Context, title string) (string, error) {
	return s.transition(ctx, OpCancelExecutive, title, "executive confirmation for '%s' cancelled")
}

// FinalConfirmExecutive moves the order to its terminal state (P4 -> P5) and
// fires the finalization notification.
func (s *Service) FinalConfirmExecutive(ctx context.Context, title string) (string, error) {
	msg, err := s.transition(ctx, OpFinalConfirm, title, "ledger order '%s' finalized")
	if err != nil {
		return "", err
	}
	if s.notifier != nil {
		if err := s.notifier.LedgerFinalized(ctx, title); err != nil {
			// Notification is fire-and-forget; the transition already committed.
			s.logger.Error("finalization notify", slog.Any("error", err), slog.String("title", title))
		}
	}
	return msg, nil
}

func (s *Service) transition(ctx context.Context, op, title, successFormat string) (string, error) {
	edge, ok := TransitionFor(op)
	if !ok {
		return "", fmt.Errorf("ledger: unknown transition %q", op)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.ByTitleForUpdate(ctx, title)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFound("ledger order", title)
		}
		if order.Status != edge.From {
			return shared.NewInvalidState(op, string(edge.From), string(order.Status))
		}
		return tx.UpdateStatus(ctx, order.ID, edge.To)
	})
	if err != nil {
		return "", err
	}

	s.cache.Invalidate(ctx)
	s.audit(ctx, title, edge.From, edge.To)
	s.logger.Info("ledger order transition",
		slog.String("op", op),
		slog.String("title", title),
		slog.String("from", string(edge.From)),
		slog.String("to", string(edge.To)))
	return fmt.Sprintf(successFormat, title), nil
}

func (s *Service) audit(ctx context.Context, title string, from, to Status) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.TransitionLog{
		Module:     "ledger",
		Ref:        title,
		Actor:      shared.ActorFromContext(ctx),
		FromStatus: string(from),
		ToStatus:   string(to),
	})
}
