package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "crucible/contexts/contest-core/payout-engine/application"
	"crucible/contexts/contest-core/payout-engine/application/commands"
	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/ports"
)

const deadlineFinalizerActor = "system:deadline-finalizer"

// DeadlineFinalizer sweeps active contests whose deadline passed and settles
// them. A contest settled by a competing sweep between the listing and the
// lock is skipped, not treated as a failure.
type DeadlineFinalizer struct {
	Contests  ports.ContestFinder
	Finalize  commands.FinalizeContestUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (j DeadlineFinalizer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	due, err := j.Contests.ListActiveContestsPastDeadline(ctx, now, limit)
	if err != nil {
		logger.Error("deadline sweep listing failed",
			"event", "payout_deadline_sweep_list_failed",
			"module", "contest-core/payout-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	settled := 0
	for _, contestID := range due {
		_, err := j.Finalize.Execute(ctx, commands.FinalizeContestCommand{
			ContestID: contestID,
			ActorID:   deadlineFinalizerActor,
			Reason:    "deadline reached",
		})
		if err != nil {
			if errors.Is(err, domainerrors.ErrContestNotFinalizable) {
				continue
			}
			logger.Error("deadline finalization failed",
				"event", "payout_deadline_finalize_failed",
				"module", "contest-core/payout-engine",
				"layer", "worker",
				"contest_id", contestID,
				"error", err.Error(),
			)
			return err
		}
		settled++
	}

	if settled > 0 {
		logger.Info("deadline sweep completed",
			"event", "payout_deadline_sweep_completed",
			"module", "contest-core/payout-engine",
			"layer", "worker",
			"settled_count", settled,
		)
	}
	return nil
}
