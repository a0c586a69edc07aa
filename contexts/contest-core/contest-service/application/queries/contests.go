package queries

import (
	"context"
	"strings"

	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	"crucible/contexts/contest-core/contest-service/ports"
)

type ContestUseCase struct {
	Contests ports.ContestRepository
	History  ports.HistoryRepository
}

func (uc ContestUseCase) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	if strings.TrimSpace(contestID) == "" {
		return entities.Contest{}, domainerrors.ErrInvalidContestInput
	}
	return uc.Contests.GetContest(ctx, strings.TrimSpace(contestID))
}

func (uc ContestUseCase) ListContests(
	ctx context.Context,
	status entities.ContestStatus,
	limit int,
) ([]entities.Contest, error) {
	if status != "" && !entities.IsSupportedStatus(status) {
		return nil, domainerrors.ErrInvalidContestInput
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.Contests.ListContestsByStatus(ctx, status, limit)
}

func (uc ContestUseCase) StateHistory(ctx context.Context, contestID string) ([]entities.StateHistory, error) {
	if strings.TrimSpace(contestID) == "" {
		return nil, domainerrors.ErrInvalidContestInput
	}
	return uc.History.ListStateHistory(ctx, strings.TrimSpace(contestID))
}
