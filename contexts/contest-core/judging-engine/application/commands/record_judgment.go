package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "crucible/contexts/contest-core/judging-engine/application"
	"crucible/contexts/contest-core/judging-engine/domain/entities"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"
)

type RecordJudgmentCommand struct {
	ContestID  string
	EntryID    string
	JudgeID    string
	ScoreDelta float64
	VoteDelta  int
	EventID    string
}

// RecordJudgmentUseCase folds one scoring signal into an entry's aggregate.
// Judgments against contests that are no longer active are rejected, and an
// EventID that was already applied is dropped silently.
type RecordJudgmentUseCase struct {
	Contests  ports.ContestReader
	Scores    ports.EntryScoreRepository
	Judgments ports.JudgmentRepository
	Dedup     ports.EventDedupStore
	Cache     ports.StandingsCache
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc RecordJudgmentUseCase) Execute(ctx context.Context, cmd RecordJudgmentCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ContestID) == "" || strings.TrimSpace(cmd.EntryID) == "" {
		return domainerrors.ErrInvalidJudgmentInput
	}
	if cmd.ScoreDelta == 0 && cmd.VoteDelta == 0 {
		return domainerrors.ErrInvalidJudgmentInput
	}

	now := uc.now()
	if uc.Dedup != nil && strings.TrimSpace(cmd.EventID) != "" {
		fresh, err := uc.Dedup.ReserveEvent(ctx, strings.TrimSpace(cmd.EventID), now)
		if err != nil {
			return err
		}
		if !fresh {
			logger.Debug("judgment dropped as duplicate",
				"event", "judgment_duplicate_dropped",
				"module", "contest-core/judging-engine",
				"layer", "application",
				"event_id", strings.TrimSpace(cmd.EventID),
			)
			return nil
		}
	}

	contest, err := uc.Contests.GetContest(ctx, strings.TrimSpace(cmd.ContestID))
	if err != nil {
		return err
	}
	if !strings.EqualFold(contest.Status, "active") {
		logger.Warn("judgment rejected for inactive contest",
			"event", "judgment_rejected",
			"module", "contest-core/judging-engine",
			"layer", "application",
			"contest_id", contest.ContestID,
			"status", contest.Status,
		)
		return domainerrors.ErrContestNotJudgeable
	}

	if err := uc.Scores.ApplyJudgment(
		ctx,
		contest.ContestID,
		strings.TrimSpace(cmd.EntryID),
		cmd.ScoreDelta,
		cmd.VoteDelta,
	); err != nil {
		return err
	}

	if uc.Judgments != nil {
		judgmentID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		if err := uc.Judgments.RecordJudgment(ctx, entities.Judgment{
			JudgmentID: judgmentID,
			ContestID:  contest.ContestID,
			EntryID:    strings.TrimSpace(cmd.EntryID),
			JudgeID:    strings.TrimSpace(cmd.JudgeID),
			ScoreDelta: cmd.ScoreDelta,
			VoteDelta:  cmd.VoteDelta,
			OccurredAt: now,
		}); err != nil {
			return err
		}
	}

	if uc.Cache != nil {
		if err := uc.Cache.Invalidate(ctx, contest.ContestID); err != nil {
			logger.Warn("standings cache invalidation failed",
				"event", "standings_cache_invalidate_failed",
				"module", "contest-core/judging-engine",
				"layer", "application",
				"contest_id", contest.ContestID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("judgment applied",
		"event", "judgment_applied",
		"module", "contest-core/judging-engine",
		"layer", "application",
		"contest_id", contest.ContestID,
		"entry_id", strings.TrimSpace(cmd.EntryID),
		"score_delta", cmd.ScoreDelta,
		"vote_delta", cmd.VoteDelta,
	)
	return nil
}

func (uc RecordJudgmentUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
