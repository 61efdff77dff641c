package activity

import (
	"context"

	"github.com/frahmantamala/group-expenses/internal/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*Activity, int64, error) {
	return s.repo.ListByGroup(ctx, groupID, p)
}
