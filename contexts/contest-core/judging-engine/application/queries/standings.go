package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "crucible/contexts/contest-core/judging-engine/application"
	"crucible/contexts/contest-core/judging-engine/domain/entities"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"
)

// StandingsUseCase computes the live leaderboard for a contest. Ordering is
// deterministic: higher score first, earlier submission breaks score ties,
// entry id breaks the rest.
type StandingsUseCase struct {
	Scores   ports.EntryScoreRepository
	Cache    ports.StandingsCache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func (uc StandingsUseCase) Standings(ctx context.Context, contestID string) ([]entities.Standing, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return nil, domainerrors.ErrContestNotFound
	}
	logger := application.ResolveLogger(uc.Logger)

	if uc.Cache != nil {
		cached, found, err := uc.Cache.GetStandings(ctx, contestID)
		if err != nil {
			logger.Warn("standings cache read failed",
				"event", "standings_cache_read_failed",
				"module", "contest-core/judging-engine",
				"layer", "application",
				"contest_id", contestID,
				"error", err.Error(),
			)
		} else if found {
			return cached, nil
		}
	}

	scores, err := uc.Scores.ListEntryScoresByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	standings := RankEntryScores(scores)

	if uc.Cache != nil {
		if err := uc.Cache.PutStandings(ctx, contestID, standings, uc.resolveCacheTTL()); err != nil {
			logger.Warn("standings cache write failed",
				"event", "standings_cache_write_failed",
				"module", "contest-core/judging-engine",
				"layer", "application",
				"contest_id", contestID,
				"error", err.Error(),
			)
		}
	}
	return standings, nil
}

func (uc StandingsUseCase) resolveCacheTTL() time.Duration {
	if uc.CacheTTL <= 0 {
		return 15 * time.Second
	}
	return uc.CacheTTL
}

// RankEntryScores orders scores and assigns consecutive ranks starting at 1.
func RankEntryScores(scores []entities.EntryScore) []entities.Standing {
	sorted := append([]entities.EntryScore(nil), scores...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].EntryID < sorted[j].EntryID
	})
	standings := make([]entities.Standing, 0, len(sorted))
	for i, score := range sorted {
		standings = append(standings, entities.Standing{
			Rank:        i + 1,
			EntryID:     score.EntryID,
			UserID:      score.UserID,
			Score:       score.Score,
			VoteCount:   score.VoteCount,
			SubmittedAt: score.SubmittedAt,
		})
	}
	return standings
}
