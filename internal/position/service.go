package position

import (
	"context"
	"log/slog"

	"github.com/meridian-grc/meridian-grc/internal/codes"
)

// CreateGroupInput carries a new concurrent group and its member positions.
type CreateGroupInput struct {
	Name        string  `json:"name" validate:"required"`
	PositionIDs []int64 `json:"positionIds" validate:"required,min=2,dive,gt=0"`
}

// Service owns concurrent group writes. Group codes come from a single global
// scope: no parent, "G" separator, 4-digit sequence.
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

func groupSpec() codes.Spec {
	return codes.Spec{
		Table:     "position_concurrent_groups",
		Column:    "code",
		Separator: groupSeparator,
		Width:     sequenceWidth,
	}
}

// CreateGroup allocates the next global group code and inserts the group with
// its members atomically.
func (s *Service) CreateGroup(ctx context.Context, in CreateGroupInput) (*ConcurrentGroup, error) {
	var created *ConcurrentGroup
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, groupSpec())
		if err != nil {
			return err
		}
		created, err = tx.InsertGroup(ctx, ConcurrentGroup{
			Code:        code,
			Name:        in.Name,
			PositionIDs: in.PositionIDs,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("concurrent group created",
		slog.String("code", created.Code),
		slog.Int("members", len(created.PositionIDs)))
	return created, nil
}

// List returns all concurrent groups.
func (s *Service) List(ctx context.Context) ([]ConcurrentGroup, error) {
	return s.repo.List(ctx)
}

// Get returns one concurrent group by code.
func (s *Service) Get(ctx context.Context, code string) (*ConcurrentGroup, error) {
	return s.repo.ByCode(ctx, code)
}
