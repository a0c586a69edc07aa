package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "crucible/contexts/contest-core/contest-service/application"
	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	"crucible/contexts/contest-core/contest-service/ports"
)

// ActivateContestCommand opens a pending contest for submissions. Completion
// and cancellation are owned by the payout engine; the only moderator-driven
// transition here is pending to active.
type ActivateContestCommand struct {
	ContestID string
	ActorID   string
	Reason    string
}

type ActivateContestUseCase struct {
	Contests ports.ContestRepository
	History  ports.HistoryRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc ActivateContestUseCase) Execute(ctx context.Context, cmd ActivateContestCommand) (entities.Contest, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ContestID) == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return entities.Contest{}, domainerrors.ErrInvalidContestInput
	}

	contest, err := uc.Contests.GetContest(ctx, strings.TrimSpace(cmd.ContestID))
	if err != nil {
		return entities.Contest{}, err
	}
	if contest.Status != entities.ContestStatusPending {
		logger.Warn("contest activation rejected",
			"event", "contest_activation_rejected",
			"module", "contest-core/contest-service",
			"layer", "application",
			"contest_id", contest.ContestID,
			"status", string(contest.Status),
		)
		return entities.Contest{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.Clock.Now().UTC()
	from := contest.Status
	contest.Status = entities.ContestStatusActive
	contest.ActivatedAt = &now
	contest.UpdatedAt = now
	if err := uc.Contests.UpdateContest(ctx, contest); err != nil {
		return entities.Contest{}, err
	}

	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Contest{}, err
	}
	if err := uc.History.AppendState(ctx, entities.StateHistory{
		HistoryID:    historyID,
		ContestID:    contest.ContestID,
		FromState:    from,
		ToState:      contest.Status,
		ChangedBy:    strings.TrimSpace(cmd.ActorID),
		ChangeReason: strings.TrimSpace(cmd.Reason),
		CreatedAt:    now,
	}); err != nil {
		return entities.Contest{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Contest{}, err
		}
		envelope, err := newContestEnvelope(eventID, "contest.activated", contest.ContestID, now, map[string]any{
			"contest_id":  contest.ContestID,
			"actor_id":    strings.TrimSpace(cmd.ActorID),
			"occurred_at": now.Format(time.RFC3339),
		})
		if err != nil {
			return entities.Contest{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.Contest{}, err
		}
	}

	logger.Info("contest activated",
		"event", "contest_activated",
		"module", "contest-core/contest-service",
		"layer", "application",
		"contest_id", contest.ContestID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	return contest, nil
}
