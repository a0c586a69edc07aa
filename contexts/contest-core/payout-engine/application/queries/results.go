package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/ports"
)

type ContestResults struct {
	ContestID string
	Status    string
	Entries   []ports.EntryRecord
}

// ResultsUseCase serves final contest results once settlement has stamped
// positions on the entries.
type ResultsUseCase struct {
	Contests ports.ContestStore
	Entries  ports.EntryStore
	Logger   *slog.Logger
}

func (uc ResultsUseCase) Results(ctx context.Context, contestID string) (ContestResults, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return ContestResults{}, domainerrors.ErrContestNotFound
	}
	contest, err := uc.Contests.GetContest(ctx, contestID)
	if err != nil {
		return ContestResults{}, err
	}
	if !strings.EqualFold(contest.Status, "completed") {
		return ContestResults{}, domainerrors.ErrContestNotCompleted
	}
	entries, err := uc.Entries.ListEntriesByContest(ctx, contest.ContestID)
	if err != nil {
		return ContestResults{}, err
	}
	sort.Slice(entries, func(i, j int) bool {
		left, right := entries[i].FinalPosition, entries[j].FinalPosition
		if left == nil || right == nil {
			return left != nil
		}
		return *left < *right
	})
	return ContestResults{
		ContestID: contest.ContestID,
		Status:    contest.Status,
		Entries:   entries,
	}, nil
}
