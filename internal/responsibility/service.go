package responsibility

import (
	"context"
	"log/slog"

	"github.com/meridian-grc/meridian-grc/internal/codes"
)

// CreateResponsibilityInput carries a new top-level responsibility.
type CreateResponsibilityInput struct {
	LedgerOrderID int64  `json:"ledgerOrderId" validate:"required,gt=0"`
	Category      string `json:"category" validate:"required,len=1,alpha"`
	Content       string `json:"content" validate:"required"`
}

// CreateDetailInput carries a new responsibility detail.
type CreateDetailInput struct {
	ResponsibilityCode string `json:"responsibilityCode" validate:"required"`
	Content            string `json:"content" validate:"required"`
}

// CreateObligationInput carries a new management obligation.
type CreateObligationInput struct {
	DetailCode string `json:"detailCode" validate:"required"`
	OrgCode    string `json:"orgCode" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// CreateManualInput carries a new department-manager manual.
type CreateManualInput struct {
	ObligationCode string `json:"obligationCode" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

// TreeInput is the composite create: one responsibility with nested details
// and obligations, allocated and inserted in one transaction.
type TreeInput struct {
	LedgerOrderID int64             `json:"ledgerOrderId" validate:"required,gt=0"`
	Category      string            `json:"category" validate:"required,len=1,alpha"`
	Content       string            `json:"content" validate:"required"`
	Details       []TreeDetailInput `json:"details" validate:"dive"`
}

// TreeDetailInput is one nested detail of a composite create.
type TreeDetailInput struct {
	Content     string                `json:"content" validate:"required"`
	Obligations []TreeObligationInput `json:"obligations" validate:"dive"`
}

// TreeObligationInput is one nested obligation of a composite create.
type TreeObligationInput struct {
	OrgCode string `json:"orgCode" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Tree is the persisted result of a composite create.
type Tree struct {
	Responsibility Responsibility `json:"responsibility"`
	Details        []TreeDetail   `json:"details"`
}

// TreeDetail pairs a persisted detail with its obligations.
type TreeDetail struct {
	Detail      Detail       `json:"detail"`
	Obligations []Obligation `json:"obligations"`
}

// Service owns responsibility aggregate writes. Every create allocates the
// child code inside the same transaction as the insert.
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

func responsibilitySpec(orderTitle, category string) codes.Spec {
	return codes.Spec{
		Table:     "responsibilities",
		Column:    "code",
		Parent:    orderTitle,
		Separator: category,
		Width:     SequenceWidth,
	}
}

func detailSpec(responsibilityCode string) codes.Spec {
	return codes.Spec{
		Table:       "responsibility_details",
		Column:      "code",
		Parent:      responsibilityCode,
		Separator:   SeparatorDetail,
		Width:       SequenceWidth,
		ScopeSuffix: DetailScopeChars,
	}
}

func obligationSpec(detailCode, separator string) codes.Spec {
	return codes.Spec{
		Table:     "management_obligations",
		Column:    "code",
		Parent:    detailCode,
		Separator: separator,
		Width:     SequenceWidth,
	}
}

func manualSpec(obligationCode string) codes.Spec {
	return codes.Spec{
		Table:     "dept_manager_manuals",
		Column:    "code",
		Parent:    obligationCode,
		Separator: SeparatorManual,
		Width:     SequenceWidth,
	}
}

// CreateResponsibility allocates the next code under the parent order and
// category, then inserts the row.
func (s *Service) CreateResponsibility(ctx context.Context, in CreateResponsibilityInput) (*Responsibility, error) {
	var created *Responsibility
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		title, err := tx.OrderTitle(ctx, in.LedgerOrderID)
		if err != nil {
			return err
		}
		code, err := tx.NextCode(ctx, responsibilitySpec(title, in.Category))
		if err != nil {
			return err
		}
		created, err = tx.InsertResponsibility(ctx, Responsibility{
			Code:          code,
			LedgerOrderID: in.LedgerOrderID,
			Category:      in.Category,
			Content:       in.Content,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("responsibility created", slog.String("code", created.Code))
	return created, nil
}

// CreateDetail allocates the next detail code under a responsibility. The
// allocation scope keeps only the tail of the responsibility code, and the
// produced code starts with that same truncated scope.
func (s *Service) CreateDetail(ctx context.Context, in CreateDetailInput) (*Detail, error) {
	var created *Detail
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, detailSpec(in.ResponsibilityCode))
		if err != nil {
			return err
		}
		created, err = tx.InsertDetail(ctx, Detail{
			Code:               code,
			ResponsibilityCode: in.ResponsibilityCode,
			Content:            in.Content,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("responsibility detail created", slog.String("code", created.Code))
	return created, nil
}

// CreateObligation allocates the next obligation code under a detail.
func (s *Service) CreateObligation(ctx context.Context, in CreateObligationInput) (*Obligation, error) {
	var created *Obligation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, obligationSpec(in.DetailCode, SeparatorObligation))
		if err != nil {
			return err
		}
		created, err = tx.InsertObligation(ctx, Obligation{
			Code:       code,
			DetailCode: in.DetailCode,
			OrgCode:    in.OrgCode,
			Content:    in.Content,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("management obligation created", slog.String("code", created.Code))
	return created, nil
}

// CreateManual allocates the next manual code under an obligation.
func (s *Service) CreateManual(ctx context.Context, in CreateManualInput) (*Manual, error) {
	var created *Manual
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, manualSpec(in.ObligationCode))
		if err != nil {
			return err
		}
		created, err = tx.InsertManual(ctx, Manual{
			Code:           code,
			ObligationCode: in.ObligationCode,
			Content:        in.Content,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("manual created", slog.String("code", created.Code))
	return created, nil
}

// CreateWithChildren persists a responsibility together with its nested
// details and obligations in one transaction. Nested obligations use the
// "MO" separator, keeping their sequence apart from obligations added one at
// a time.
func (s *Service) CreateWithChildren(ctx context.Context, in TreeInput) (*Tree, error) {
	var tree Tree
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		title, err := tx.OrderTitle(ctx, in.LedgerOrderID)
		if err != nil {
			return err
		}
		code, err := tx.NextCode(ctx, responsibilitySpec(title, in.Category))
		if err != nil {
			return err
		}
		resp, err := tx.InsertResponsibility(ctx, Responsibility{
			Code:          code,
			LedgerOrderID: in.LedgerOrderID,
			Category:      in.Category,
			Content:       in.Content,
		})
		if err != nil {
			return err
		}
		tree.Responsibility = *resp

		for _, d := range in.Details {
			detailCode, err := tx.NextCode(ctx, detailSpec(resp.Code))
			if err != nil {
				return err
			}
			detail, err := tx.InsertDetail(ctx, Detail{
				Code:               detailCode,
				ResponsibilityCode: resp.Code,
				Content:            d.Content,
			})
			if err != nil {
				return err
			}
			node := TreeDetail{Detail: *detail}

			for _, o := range d.Obligations {
				obligationCode, err := tx.NextCode(ctx, obligationSpec(detail.Code, SeparatorNestedObligation))
				if err != nil {
					return err
				}
				obligation, err := tx.InsertObligation(ctx, Obligation{
					Code:       obligationCode,
					DetailCode: detail.Code,
					OrgCode:    o.OrgCode,
					Content:    o.Content,
				})
				if err != nil {
					return err
				}
				node.Obligations = append(node.Obligations, *obligation)
			}
			tree.Details = append(tree.Details, node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("responsibility tree created",
		slog.String("code", tree.Responsibility.Code),
		slog.Int("details", len(tree.Details)))
	return &tree, nil
}

// ListByOrder returns responsibilities under a ledger order.
func (s *Service) ListByOrder(ctx context.Context, ledgerOrderID int64) ([]Responsibility, error) {
	return s.repo.ListByOrder(ctx, ledgerOrderID)
}

// Details returns details of a responsibility.
func (s *Service) Details(ctx context.Context, responsibilityCode string) ([]Detail, error) {
	return s.repo.DetailsFor(ctx, responsibilityCode)
}

// Obligations returns obligations of a detail.
func (s *Service) Obligations(ctx context.Context, detailCode string) ([]Obligation, error) {
	return s.repo.ObligationsFor(ctx, detailCode)
}

// Manuals returns manuals of an obligation.
func (s *Service) Manuals(ctx context.Context, obligationCode string) ([]Manual, error) {
	return s.repo.ManualsFor(ctx, obligationCode)
}
