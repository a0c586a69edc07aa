package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "crucible/contexts/contest-core/payout-engine/application"
	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/domain/services"
	"crucible/contexts/contest-core/payout-engine/ports"
)

const (
	statusActive    = "active"
	statusPending   = "pending"
	statusCompleted = "completed"
	statusCancelled = "cancelled"
)

type FinalizeContestCommand struct {
	ContestID string
	ActorID   string
	Reason    string
}

type WinnerSummary struct {
	Position int
	EntryID  string
	UserID   string
	Amount   int64
}

type FinalizationResult struct {
	ContestID        string
	EntryCount       int
	TotalPool        int64
	TotalDistributed int64
	Retained         int64
	Winners          []WinnerSummary
}

// FinalizeContestUseCase settles an active contest: ranks its entries, pays
// configured positions from the fee pool, stamps every entry with its final
// position, and completes the contest. The whole settlement commits or rolls
// back as one unit.
type FinalizeContestUseCase struct {
	Work   ports.UnitOfWork
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc FinalizeContestUseCase) Execute(ctx context.Context, cmd FinalizeContestCommand) (FinalizationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	contestID := strings.TrimSpace(cmd.ContestID)
	if contestID == "" {
		return FinalizationResult{}, domainerrors.ErrContestNotFound
	}
	now := uc.now()

	var result FinalizationResult
	err := uc.Work.Execute(ctx, contestID, func(tx ports.TxContext) error {
		contest, err := tx.Contests().GetContest(ctx, contestID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(contest.Status, statusActive) {
			return domainerrors.ErrContestNotFinalizable
		}

		entries, err := tx.Entries().ListEntriesByContest(ctx, contest.ContestID)
		if err != nil {
			return err
		}
		ranked := RankEntries(entries)

		totalPool := contest.EntryFee * int64(len(ranked))
		awards, err := services.CalculatePrizes(contest.PrizeSplits, totalPool, len(ranked))
		if err != nil {
			return err
		}

		winners := make([]WinnerSummary, 0, len(awards))
		for i, entry := range ranked {
			position := i + 1
			amount := services.AmountForPosition(awards, position)
			if err := tx.Entries().SetEntryResult(ctx, entry.EntryID, position, amount, now); err != nil {
				return err
			}
			if err := tx.Ledger().Credit(ctx, entry.UserID, amount); err != nil {
				return err
			}
			if amount > 0 {
				winners = append(winners, WinnerSummary{
					Position: position,
					EntryID:  entry.EntryID,
					UserID:   entry.UserID,
					Amount:   amount,
				})
			}
		}

		if err := tx.Contests().SetContestStatus(
			ctx,
			contest.ContestID,
			contest.Status,
			statusCompleted,
			strings.TrimSpace(cmd.ActorID),
			strings.TrimSpace(cmd.Reason),
			now,
		); err != nil {
			return err
		}

		distributed := services.TotalDistributed(awards)
		result = FinalizationResult{
			ContestID:        contest.ContestID,
			EntryCount:       len(ranked),
			TotalPool:        totalPool,
			TotalDistributed: distributed,
			Retained:         totalPool - distributed,
			Winners:          winners,
		}
		return uc.appendFinalizedEvent(ctx, tx.Outbox(), result, now)
	})
	if err != nil {
		return FinalizationResult{}, err
	}

	logger.Info("contest finalized",
		"event", "contest_finalized",
		"module", "contest-core/payout-engine",
		"layer", "application",
		"contest_id", result.ContestID,
		"entry_count", result.EntryCount,
		"total_pool", result.TotalPool,
		"total_distributed", result.TotalDistributed,
		"retained", result.Retained,
	)
	return result, nil
}

func (uc FinalizeContestUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc FinalizeContestUseCase) appendFinalizedEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	result FinalizationResult,
	occurredAt time.Time,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	winners := make([]map[string]any, 0, len(result.Winners))
	for _, winner := range result.Winners {
		winners = append(winners, map[string]any{
			"position": winner.Position,
			"entry_id": winner.EntryID,
			"user_id":  winner.UserID,
			"amount":   winner.Amount,
		})
	}
	data, err := json.Marshal(map[string]any{
		"contest_id":        result.ContestID,
		"entry_count":       result.EntryCount,
		"total_pool":        result.TotalPool,
		"total_distributed": result.TotalDistributed,
		"retained":          result.Retained,
		"winners":           winners,
		"occurred_at":       occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "contest.finalized",
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "payout-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     result.ContestID,
		Data:             data,
	})
}

// RankEntries orders entries for settlement: higher score first, earlier
// submission breaks score ties, entry id breaks the rest.
func RankEntries(entries []ports.EntryRecord) []ports.EntryRecord {
	ranked := append([]ports.EntryRecord(nil), entries...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].EntryID < ranked[j].EntryID
	})
	return ranked
}
