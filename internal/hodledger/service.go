package hodledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// ApprovalChecker answers whether every control item scoped to a ledger order
// carries an approved disposition. It is supplied by the inspection
// aggregate; the lifecycle never reaches into that schema directly.
type ApprovalChecker interface {
	AllItemsApproved(ctx context.Context, ledgerOrderID int64) (bool, error)
}

// Auditor records successful lifecycle transitions.
type Auditor interface {
	Record(ctx context.Context, entry shared.TransitionLog) error
}

// Notifier announces sub-ledger confirmation out of band.
type Notifier interface {
	HodLedgerConfirmed(ctx context.Context, title string) error
}

// GenerateResult describes a freshly generated sub-ledger.
type GenerateResult struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Status           Status `json:"status"`
	LedgerOrderID    int64  `json:"ledgerOrderId"`
	LedgerOrderTitle string `json:"ledgerOrderTitle"`
	Message          string `json:"message"`
}

// SelectOption is a list row shaped for selection UIs.
type SelectOption struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Status Status `json:"status"`
}

// Service owns the sub-ledger lifecycle.
type Service struct {
	repo      Repository
	approvals ApprovalChecker
	auditor   Auditor
	notifier  Notifier
	logger    *slog.Logger
}

// NewService constructs a Service. Auditor and notifier may be nil; the
// approval checker is mandatory because confirmation is gated on it.
func NewService(repo Repository, approvals ApprovalChecker, auditor Auditor, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, approvals: approvals, auditor: auditor, notifier: notifier, logger: logger}
}

// List returns all sub-ledgers, most recent first.
func (s *Service) List(ctx context.Context) ([]Ledger, error) {
	return s.repo.List(ctx)
}

// SelectOptions returns list rows labelled "title (status)" for select boxes.
func (s *Service) SelectOptions(ctx context.Context) ([]SelectOption, error) {
	ledgers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, SelectOption{
			ID:     l.ID,
			Label:  fmt.Sprintf("%s (%s)", l.Title, l.Status.Label()),
			Status: l.Status,
		})
	}
	return out, nil
}

// Get returns one sub-ledger by id.
func (s *Service) Get(ctx context.Context, id int64) (*Ledger, error) {
	return s.repo.ByID(ctx, id)
}

// Generate creates the next sub-ledger. When a sub-ledger chain already
// exists the most recent one must be finalized and its title suffix is
// incremented, preserving the parent linkage. When none exists yet the latest
// ledger order itself must be finalized and seeds the "-01" title. Exactly
// one chain may exist per parent order.
func (s *Service) Generate(ctx context.Context) (GenerateResult, error) {
	var result GenerateResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		latest, err := tx.LatestForUpdate(ctx)
		if err != nil {
			return err
		}

		if latest != nil {
			if latest.Status != StatusFinalized {
				return shared.NewInvalidState("generateHodLedger", string(StatusFinalized), string(latest.Status))
			}
			title, err := NextTitle(latest.Title)
			if err != nil {
				return err
			}
			created, err := tx.Insert(ctx, latest.LedgerOrderID, title, StatusInProgress)
			if err != nil {
				return err
			}
			result = GenerateResult{
				ID:               created.ID,
				Title:            created.Title,
				Status:           created.Status,
				LedgerOrderID:    created.LedgerOrderID,
				LedgerOrderTitle: ParentTitle(latest.Title),
				Message:          fmt.Sprintf("hod ledger '%s' created", created.Title),
			}
			return nil
		}

		order, err := tx.LatestOrderForUpdate(ctx)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFound("ledger order", "latest")
		}
		if !order.Finalized() {
			return shared.NewInvalidState("generateHodLedger", "P5", string(order.Status))
		}
		exists, err := tx.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("hod ledger for order '%s': %w", order.Title, shared.ErrDuplicateTitle)
		}

		created, err := tx.Insert(ctx, order.ID, FirstTitle(order.Title), StatusInProgress)
		if err != nil {
			return err
		}
		result = GenerateResult{
			ID:               created.ID,
			Title:            created.Title,
			Status:           created.Status,
			LedgerOrderID:    order.ID,
			LedgerOrderTitle: order.Title,
			Message:          fmt.Sprintf("hod ledger '%s' created", created.Title),
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	s.audit(ctx, result.Title, "", StatusInProgress)
	s.logger.Info("hod ledger generated",
		slog.String("title", result.Title),
		slog.Int64("ledgerOrderId", result.LedgerOrderID))
	return result, nil
}

// Confirm finalizes an in-progress sub-ledger (P6 -> P7). Confirmation is
// refused unless every control item scoped to the parent ledger order is
// approved; that refusal is a precondition failure, distinct from an invalid
// lifecycle state, so callers can direct the user to the approval subsystem.
func (s *Service) Confirm(ctx context.Context, id int64) error {
	var title string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		l, err := tx.ByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return shared.NewNotFound("hod ledger", fmt.Sprintf("%d", id))
		}
		if l.Status != StatusInProgress {
			return shared.NewInvalidState("confirmHodLedger", string(StatusInProgress), string(l.Status))
		}

		approved, err := s.approvals.AllItemsApproved(ctx, l.LedgerOrderID)
		if err != nil {
			return err
		}
		if !approved {
			return shared.NewPrecondition("all control items for the parent ledger order must be approved before confirmation")
		}

		title = l.Title
		return tx.UpdateStatus(ctx, l.ID, StatusFinalized)
	})
	if err != nil {
		return err
	}

	s.audit(ctx, title, StatusInProgress, StatusFinalized)
	if s.notifier != nil {
		if err := s.notifier.HodLedgerConfirmed(ctx, title); err != nil {
			s.logger.Error("hod confirmation notify", slog.Any("error", err), slog.String("title", title))
		}
	}
	s.logger.Info("hod ledger confirmed", slog.Int64("id", id), slog.String("title", title))
	return nil
}

func (s *Service) audit(ctx context.Context, title string, from, to Status) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.TransitionLog{
		Module:     "hodledger",
		Ref:        title,
		Actor:      shared.ActorFromContext(ctx),
		FromStatus: string(from),
		ToStatus:   string(to),
	})
}
