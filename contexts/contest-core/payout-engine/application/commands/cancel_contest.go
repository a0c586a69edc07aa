package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "crucible/contexts/contest-core/payout-engine/application"
	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/ports"
)

type CancelContestCommand struct {
	ContestID string
	ActorID   string
	Reason    string
}

type CancellationResult struct {
	ContestID       string
	RefundedEntries int
	TotalRefunded   int64
}

// CancelContestUseCase aborts a pending or active contest and refunds the
// entry fee to every participant. Refunds and the status change commit
// together or not at all.
type CancelContestUseCase struct {
	Work   ports.UnitOfWork
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CancelContestUseCase) Execute(ctx context.Context, cmd CancelContestCommand) (CancellationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return CancellationResult{}, domainerrors.ErrContestNotFound
	}
	now := uc.now()

	var result CancellationResult
	err := uc.Work.Execute(ctx, contestID, func(tx ports.TxContext) error {
		contest, err := tx.Contests().GetContest(ctx, contestID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(contest.Status, statusPending) &&
			!strings.EqualFold(contest.Status, statusActive) {
			return domainerrors.ErrContestNotCancellable
		}

		entries, err := tx.Entries().ListEntriesByContest(ctx, contest.ContestID)
		if err != nil {
			return err
		}

		var totalRefunded int64
		for _, entry := range entries {
			if contest.EntryFee > 0 {
				if err := tx.Ledger().Credit(ctx, entry.UserID, contest.EntryFee); err != nil {
					return err
				}
				totalRefunded += contest.EntryFee
			}
		}

		if err := tx.Contests().SetContestStatus(
			ctx,
			contest.ContestID,
			contest.Status,
			statusCancelled,
			strings.TrimSpace(cmd.ActorID),
			strings.TrimSpace(cmd.Reason),
			now,
		); err != nil {
			return err
		}

		result = CancellationResult{
			ContestID:       contest.ContestID,
			RefundedEntries: len(entries),
			TotalRefunded:   totalRefunded,
		}
		return uc.appendCancelledEvent(ctx, tx.Outbox(), result, now)
	})
	if err != nil {
		return CancellationResult{}, err
	}

	logger.Info("contest cancelled",
		"event", "contest_cancelled",
		"module", "contest-core/payout-engine",
		"layer", "application",
		"contest_id", result.ContestID,
		"refunded_entries", result.RefundedEntries,
		"total_refunded", result.TotalRefunded,
	)
	return result, nil
}

func (uc CancelContestUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CancelContestUseCase) appendCancelledEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	result CancellationResult,
	occurredAt time.Time,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"contest_id":       result.ContestID,
		"refunded_entries": result.RefundedEntries,
		"total_refunded":   result.TotalRefunded,
		"occurred_at":      occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "contest.cancelled",
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "payout-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     result.ContestID,
		Data:             data,
	})
}
