package inspection

import (
	"context"
	"log/slog"

	"github.com/meridian-grc/meridian-grc/internal/codes"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// CreatePlanInput carries a new inspection plan.
type CreatePlanInput struct {
	LedgerOrderID int64  `json:"ledgerOrderId" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required"`
}

// AddItemInput carries a new control item for a plan.
type AddItemInput struct {
	PlanCode string `json:"planCode" validate:"required,len=13"`
	Content  string `json:"content" validate:"required"`
}

// Service owns inspection writes and the approval predicate.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func planSpec(orderTitle string) codes.Spec {
	return codes.Spec{
		Table:     "inspection_plans",
		Column:    "code",
		Parent:    orderTitle,
		Separator: planSeparator,
		Width:     sequenceWidth,
	}
}

func itemSpec(planCode string) codes.Spec {
	return codes.Spec{
		Table:     "inspection_items",
		Column:    "code",
		Parent:    planCode,
		Separator: itemSeparator,
		Width:     sequenceWidth,
	}
}

// CreatePlan allocates the next plan code under the parent order and inserts
// the plan.
func (s *Service) CreatePlan(ctx context.Context, in CreatePlanInput) (*Plan, error) {
	var created *Plan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		title, err := tx.OrderTitle(ctx, in.LedgerOrderID)
		if err != nil {
			return err
		}
		code, err := tx.NextCode(ctx, planSpec(title))
		if err != nil {
			return err
		}
		created, err = tx.InsertPlan(ctx, Plan{
			Code:          code,
			LedgerOrderID: in.LedgerOrderID,
			Name:          in.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("inspection plan created", slog.String("code", created.Code))
	return created, nil
}

// AddItem allocates the next item code under the plan and inserts the item
// as PENDING.
func (s *Service) AddItem(ctx context.Context, in AddItemInput) (*Item, error) {
	var created *Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, itemSpec(in.PlanCode))
		if err != nil {
			return err
		}
		created, err = tx.InsertItem(ctx, Item{
			Code:     code,
			PlanCode: in.PlanCode,
			Content:  in.Content,
			Status:   ApprovalPending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("inspection item added", slog.String("code", created.Code))
	return created, nil
}

// ApproveItem marks an item APPROVED.
func (s *Service) ApproveItem(ctx context.Context, code string) error {
	return s.setItemStatus(ctx, code, ApprovalApproved)
}

// RejectItem marks an item REJECTED.
func (s *Service) RejectItem(ctx context.Context, code string) error {
	return s.setItemStatus(ctx, code, ApprovalRejected)
}

func (s *Service) setItemStatus(ctx context.Context, code string, status ApprovalStatus) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.ItemForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if item == nil {
			return shared.NewNotFound("inspection item", code)
		}
		return tx.UpdateItemStatus(ctx, code, status)
	})
	if err != nil {
		return err
	}
	s.logger.Info("inspection item disposed", slog.String("code", code), slog.String("status", string(status)))
	return nil
}

// AllItemsApproved reports whether every control item under every plan of the
// ledger order is APPROVED. An order with no items at all passes: an empty
// inspection scope must not block confirmation.
func (s *Service) AllItemsApproved(ctx context.Context, ledgerOrderID int64) (bool, error) {
	n, err := s.repo.UnapprovedCount(ctx, ledgerOrderID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// ListPlans returns inspection plans under a ledger order.
func (s *Service) ListPlans(ctx context.Context, ledgerOrderID int64) ([]Plan, error) {
	return s.repo.ListPlans(ctx, ledgerOrderID)
}

// Items returns items of a plan.
func (s *Service) Items(ctx context.Context, planCode string) ([]Item, error) {
	return s.repo.ItemsFor(ctx, planCode)
}
