package category

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]*Summary, error) {
	summaries, err := s.repo.SummarizeByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("failed to summarize categories", "group_id", groupID, "error", err)
		return nil, err
	}

	for _, summary := range summaries {
		if summary.Name == "" {
			summary.Name = Uncategorized
		}
	}

	s.logger.Debug("retrieved categories", "group_id", groupID, "count", len(summaries))
	return summaries, nil
}
