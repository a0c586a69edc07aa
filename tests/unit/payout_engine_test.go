package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	payoutengine "crucible/contexts/contest-core/payout-engine"
	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/domain/services"
	"crucible/contexts/contest-core/payout-engine/ports"
	httptransport "crucible/contexts/contest-core/payout-engine/transport/http"
)

func TestCalculatePrizesFloorsEachAward(t *testing.T) {
	splits := []services.PrizeSplit{
		{Position: 1, Percentage: 50},
		{Position: 2, Percentage: 30},
		{Position: 3, Percentage: 20},
	}
	awards, err := services.CalculatePrizes(splits, 333, 5)
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if got := services.AmountForPosition(awards, 1); got != 166 {
		t.Fatalf("expected floor(166.5)=166 for first place, got %d", got)
	}
	if got := services.AmountForPosition(awards, 2); got != 99 {
		t.Fatalf("expected floor(99.9)=99 for second place, got %d", got)
	}
	if got := services.AmountForPosition(awards, 3); got != 66 {
		t.Fatalf("expected floor(66.6)=66 for third place, got %d", got)
	}
	if total := services.TotalDistributed(awards); total != 331 {
		t.Fatalf("expected 331 distributed with 2 retained, got %d", total)
	}
}

func TestCalculatePrizesSkipsPositionsBeyondEntryCount(t *testing.T) {
	splits := []services.PrizeSplit{
		{Position: 1, Percentage: 40},
		{Position: 2, Percentage: 30},
		{Position: 3, Percentage: 20},
		{Position: 4, Percentage: 10},
	}
	awards, err := services.CalculatePrizes(splits, 1000, 2)
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if len(awards) != 2 {
		t.Fatalf("expected only two payable positions, got %d", len(awards))
	}
	if services.AmountForPosition(awards, 1) != 400 || services.AmountForPosition(awards, 2) != 300 {
		t.Fatalf("unexpected award amounts: %+v", awards)
	}
}

func TestCalculatePrizesEdgeInputs(t *testing.T) {
	winnerTakesAll := []services.PrizeSplit{{Position: 1, Percentage: 100}}
	awards, err := services.CalculatePrizes(winnerTakesAll, 500, 3)
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if services.TotalDistributed(awards) != 500 {
		t.Fatalf("expected whole pool to first place, got %d", services.TotalDistributed(awards))
	}

	awards, err = services.CalculatePrizes(winnerTakesAll, 0, 3)
	if err != nil {
		t.Fatalf("calculate with zero pool failed: %v", err)
	}
	if services.TotalDistributed(awards) != 0 {
		t.Fatalf("expected nothing distributed from empty pool")
	}

	awards, err = services.CalculatePrizes(winnerTakesAll, 500, 0)
	if err != nil {
		t.Fatalf("calculate with zero entries failed: %v", err)
	}
	if len(awards) != 0 {
		t.Fatalf("expected no awards with zero entries, got %+v", awards)
	}

	if _, err := services.CalculatePrizes(winnerTakesAll, -1, 3); !errors.Is(err, domainerrors.ErrInvalidPrizeInput) {
		t.Fatalf("expected invalid input for negative pool, got %v", err)
	}
	if _, err := services.CalculatePrizes([]services.PrizeSplit{{Position: 0, Percentage: 10}}, 100, 1); !errors.Is(err, domainerrors.ErrInvalidPrizeInput) {
		t.Fatalf("expected invalid input for non-positive position, got %v", err)
	}
}

func seedSettlementContest(module payoutengine.Module) {
	module.Store.SetContest(ports.ContestRecord{
		ContestID:   "contest-1",
		ModeratorID: "mod-1",
		Status:      "active",
		EntryFee:    100,
		PrizeSplits: []services.PrizeSplit{
			{Position: 1, Percentage: 50},
			{Position: 2, Percentage: 30},
			{Position: 3, Percentage: 20},
		},
	})
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	module.Store.SetEntry("contest-1", ports.EntryRecord{EntryID: "entry-1", UserID: "user-1", Score: 90, SubmittedAt: base})
	module.Store.SetEntry("contest-1", ports.EntryRecord{EntryID: "entry-2", UserID: "user-2", Score: 75, SubmittedAt: base.Add(time.Minute)})
	// Tied with entry-2 but submitted later, so it ranks below.
	module.Store.SetEntry("contest-1", ports.EntryRecord{EntryID: "entry-3", UserID: "user-3", Score: 75, SubmittedAt: base.Add(2 * time.Minute)})
	module.Store.SetEntry("contest-1", ports.EntryRecord{EntryID: "entry-4", UserID: "user-4", Score: 40, SubmittedAt: base.Add(3 * time.Minute)})
	module.Store.SetEntry("contest-1", ports.EntryRecord{EntryID: "entry-5", UserID: "user-5", Score: 10, SubmittedAt: base.Add(4 * time.Minute)})
}

func TestFinalizeContestDistributesPool(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	seedSettlementContest(module)

	result, err := module.Handler.FinalizeContestHandler(ctx, "contest-1", "mod-1", httptransport.FinalizeContestRequest{})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if result.EntryCount != 5 {
		t.Fatalf("expected five entries, got %d", result.EntryCount)
	}
	if result.TotalPool != 500 {
		t.Fatalf("expected pool 500, got %d", result.TotalPool)
	}
	if result.TotalDistributed != 500 || result.Retained != 0 {
		t.Fatalf("expected full distribution, got %d distributed retained %d", result.TotalDistributed, result.Retained)
	}
	if len(result.Winners) != 3 {
		t.Fatalf("expected three winners, got %d", len(result.Winners))
	}
	if result.Winners[0].UserID != "user-1" || result.Winners[0].Amount != 250 {
		t.Fatalf("unexpected first place: %+v", result.Winners[0])
	}
	if result.Winners[1].UserID != "user-2" || result.Winners[1].Amount != 150 {
		t.Fatalf("unexpected second place: %+v", result.Winners[1])
	}
	if result.Winners[2].UserID != "user-3" || result.Winners[2].Amount != 100 {
		t.Fatalf("unexpected third place: %+v", result.Winners[2])
	}

	if got := module.Store.Balance("user-1"); got != 250 {
		t.Fatalf("expected 250 credited to winner, got %d", got)
	}
	if got := module.Store.Balance("user-4"); got != 0 {
		t.Fatalf("expected no prize for fourth place, got %d", got)
	}
	// Every ranked entry gets a result row and a ledger call, prize or not.
	if got := module.Store.CreditCalls(); got != 5 {
		t.Fatalf("expected five ledger credits, got %d", got)
	}

	results, err := module.Handler.ContestResultsHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(results.Items) != 5 {
		t.Fatalf("expected five result rows, got %d", len(results.Items))
	}
	if results.Items[4].FinalPosition == nil || *results.Items[4].FinalPosition != 5 {
		t.Fatalf("expected last place stamped position 5, got %+v", results.Items[4])
	}
	if results.Items[4].PrizeAmount == nil || *results.Items[4].PrizeAmount != 0 {
		t.Fatalf("expected zero prize stamped for last place, got %+v", results.Items[4])
	}
}

func TestFinalizeContestIsNotRepeatable(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	seedSettlementContest(module)

	if _, err := module.Handler.FinalizeContestHandler(ctx, "contest-1", "mod-1", httptransport.FinalizeContestRequest{}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	_, err := module.Handler.FinalizeContestHandler(ctx, "contest-1", "mod-1", httptransport.FinalizeContestRequest{})
	if !errors.Is(err, domainerrors.ErrContestNotFinalizable) {
		t.Fatalf("expected second finalize to be rejected, got %v", err)
	}
	if got := module.Store.Balance("user-1"); got != 250 {
		t.Fatalf("expected winner paid exactly once, got %d", got)
	}
}

func TestFinalizeContestRollsBackOnLedgerFailure(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	seedSettlementContest(module)
	module.Store.FailCreditFor("user-3")

	_, err := module.Handler.FinalizeContestHandler(ctx, "contest-1", "mod-1", httptransport.FinalizeContestRequest{})
	if err == nil {
		t.Fatalf("expected finalize to fail on ledger error")
	}
	if got := module.Store.Balance("user-1"); got != 0 {
		t.Fatalf("expected rollback to undo earlier credits, got %d", got)
	}
	contest, err := module.Store.GetContest(ctx, "contest-1")
	if err != nil {
		t.Fatalf("contest lookup failed: %v", err)
	}
	if contest.Status != "active" {
		t.Fatalf("expected contest still active after rollback, got %s", contest.Status)
	}
	entries, err := module.Store.ListEntriesByContest(ctx, "contest-1")
	if err != nil {
		t.Fatalf("entry lookup failed: %v", err)
	}
	for _, entry := range entries {
		if entry.FinalPosition != nil {
			t.Fatalf("expected no positions stamped after rollback, got %+v", entry)
		}
	}
}

func TestCancelContestRefundsEntryFees(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	seedSettlementContest(module)

	result, err := module.Handler.CancelContestHandler(ctx, "contest-1", "mod-1", httptransport.CancelContestRequest{
		Reason: "moderator withdrew the contest",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.RefundedEntries != 5 || result.TotalRefunded != 500 {
		t.Fatalf("expected five refunds totalling 500, got %+v", result)
	}
	if got := module.Store.Balance("user-4"); got != 100 {
		t.Fatalf("expected entry fee refunded, got %d", got)
	}
	contest, err := module.Store.GetContest(ctx, "contest-1")
	if err != nil {
		t.Fatalf("contest lookup failed: %v", err)
	}
	if contest.Status != "cancelled" {
		t.Fatalf("expected cancelled status, got %s", contest.Status)
	}
	transitions := module.Store.StateHistory("contest-1")
	if len(transitions) != 1 || transitions[0] != "active->cancelled" {
		t.Fatalf("unexpected state history: %v", transitions)
	}
}

func TestCancelPendingContestWithoutEntries(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	module.Store.SetContest(ports.ContestRecord{
		ContestID:   "contest-empty",
		ModeratorID: "mod-1",
		Status:      "pending",
		EntryFee:    100,
	})

	result, err := module.Handler.CancelContestHandler(ctx, "contest-empty", "mod-1", httptransport.CancelContestRequest{})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.RefundedEntries != 0 || result.TotalRefunded != 0 {
		t.Fatalf("expected no refunds, got %+v", result)
	}
	if got := module.Store.CreditCalls(); got != 0 {
		t.Fatalf("expected no ledger calls, got %d", got)
	}
	contest, err := module.Store.GetContest(ctx, "contest-empty")
	if err != nil {
		t.Fatalf("contest lookup failed: %v", err)
	}
	if contest.Status != "cancelled" {
		t.Fatalf("expected cancelled status, got %s", contest.Status)
	}
}

func TestCancelContestRejectsTerminalStates(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	module.Store.SetContest(ports.ContestRecord{ContestID: "contest-done", Status: "completed"})

	_, err := module.Handler.CancelContestHandler(ctx, "contest-done", "mod-1", httptransport.CancelContestRequest{})
	if !errors.Is(err, domainerrors.ErrContestNotCancellable) {
		t.Fatalf("expected not cancellable, got %v", err)
	}
}

func TestContestResultsRequireCompletion(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()
	seedSettlementContest(module)

	_, err := module.Handler.ContestResultsHandler(ctx, "contest-1")
	if !errors.Is(err, domainerrors.ErrContestNotCompleted) {
		t.Fatalf("expected results to require completion, got %v", err)
	}
}

func TestDeadlineFinalizerSettlesDueContests(t *testing.T) {
	module := payoutengine.NewInMemoryModule(nil)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	module.Store.SetContest(ports.ContestRecord{
		ContestID: "contest-due",
		Status:    "active",
		EntryFee:  50,
		EndAt:     &past,
		PrizeSplits: []services.PrizeSplit{
			{Position: 1, Percentage: 100},
		},
	})
	module.Store.SetEntry("contest-due", ports.EntryRecord{EntryID: "entry-1", UserID: "user-1", Score: 1, SubmittedAt: past.Add(-time.Hour)})
	module.Store.SetContest(ports.ContestRecord{
		ContestID: "contest-open",
		Status:    "active",
		EndAt:     &future,
	})

	if err := module.Finalizer.RunOnce(ctx); err != nil {
		t.Fatalf("finalizer run failed: %v", err)
	}

	due, err := module.Store.GetContest(ctx, "contest-due")
	if err != nil {
		t.Fatalf("contest lookup failed: %v", err)
	}
	if due.Status != "completed" {
		t.Fatalf("expected due contest completed, got %s", due.Status)
	}
	open, err := module.Store.GetContest(ctx, "contest-open")
	if err != nil {
		t.Fatalf("contest lookup failed: %v", err)
	}
	if open.Status != "active" {
		t.Fatalf("expected open contest untouched, got %s", open.Status)
	}
	if got := module.Store.Balance("user-1"); got != 50 {
		t.Fatalf("expected winner paid the whole pool, got %d", got)
	}
}
