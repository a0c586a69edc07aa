package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contestservice "crucible/contexts/contest-core/contest-service"
	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	httptransport "crucible/contexts/contest-core/contest-service/transport/http"
)

func TestCreateContestIdempotentReplay(t *testing.T) {
	module := contestservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	req := httptransport.CreateContestRequest{
		Title:             "Weekly Landscape Showdown",
		EntryFee:          100,
		EntryLimitPerUser: 3,
		AllowedRatings:    1,
		PrizePositions:    json.RawMessage(`[{"position":1,"percentage":50},{"position":2,"percentage":30}]`),
	}
	first, err := module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-1", req)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if first.Status != string(entities.ContestStatusPending) {
		t.Fatalf("expected pending status, got %s", first.Status)
	}
	second, err := module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-1", req)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.ContestID != second.ContestID {
		t.Fatalf("expected replay to return same contest id, got %s and %s", first.ContestID, second.ContestID)
	}
	if !second.Replayed {
		t.Fatalf("expected replay flag on second response")
	}
}

func TestCreateContestRejectsIdempotencyCollision(t *testing.T) {
	module := contestservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	_, err := module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-2", httptransport.CreateContestRequest{
		Title:             "Portrait Week",
		EntryLimitPerUser: 1,
		AllowedRatings:    1,
	})
	if err != nil {
		t.Fatalf("initial create failed: %v", err)
	}
	_, err = module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-2", httptransport.CreateContestRequest{
		Title:             "A Different Contest",
		EntryLimitPerUser: 1,
		AllowedRatings:    1,
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestCreateContestRejectsInvalidInput(t *testing.T) {
	module := contestservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	_, err := module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-3", httptransport.CreateContestRequest{
		Title:             "   ",
		EntryLimitPerUser: 1,
		AllowedRatings:    1,
	})
	if !errors.Is(err, domainerrors.ErrInvalidContestInput) {
		t.Fatalf("expected invalid input for blank title, got %v", err)
	}

	_, err = module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-4", httptransport.CreateContestRequest{
		Title:             "Zero Limit",
		EntryLimitPerUser: 0,
		AllowedRatings:    1,
	})
	if !errors.Is(err, domainerrors.ErrInvalidContestInput) {
		t.Fatalf("expected invalid input for zero entry limit, got %v", err)
	}
}

func TestCreateContestStartActive(t *testing.T) {
	module := contestservice.NewInMemoryModule(nil, nil)
	ctx := context.Background()

	created, err := module.Handler.CreateContestHandler(ctx, "mod-1", "idem-create-5", httptransport.CreateContestRequest{
		Title:             "Instant Open",
		EntryLimitPerUser: 2,
		AllowedRatings:    1,
		StartActive:       true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != string(entities.ContestStatusActive) {
		t.Fatalf("expected active contest, got %s", created.Status)
	}
}

func TestActivateContestTransition(t *testing.T) {
	seed := []entities.Contest{{
		ContestID:         "contest-1",
		ModeratorID:       "mod-1",
		Title:             "Pending Contest",
		EntryLimitPerUser: 1,
		AllowedRatings:    1,
		Status:            entities.ContestStatusPending,
	}}
	module := contestservice.NewInMemoryModule(seed, nil)
	ctx := context.Background()

	activated, err := module.Handler.ActivateContestHandler(ctx, "contest-1", "mod-1", httptransport.ActivateContestRequest{
		Reason: "launch window opened",
	})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != string(entities.ContestStatusActive) {
		t.Fatalf("expected active status, got %s", activated.Status)
	}

	history, err := module.Handler.StateHistoryHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("history lookup failed: %v", err)
	}
	if len(history.Items) != 1 {
		t.Fatalf("expected one history row, got %d", len(history.Items))
	}
	if history.Items[0].FromState != "pending" || history.Items[0].ToState != "active" {
		t.Fatalf("unexpected transition row: %+v", history.Items[0])
	}
}

func TestActivateContestRejectsTerminalStates(t *testing.T) {
	seed := []entities.Contest{
		{
			ContestID:         "contest-done",
			ModeratorID:       "mod-1",
			Title:             "Finished",
			EntryLimitPerUser: 1,
			AllowedRatings:    1,
			Status:            entities.ContestStatusCompleted,
		},
		{
			ContestID:         "contest-live",
			ModeratorID:       "mod-1",
			Title:             "Already Live",
			EntryLimitPerUser: 1,
			AllowedRatings:    1,
			Status:            entities.ContestStatusActive,
		},
	}
	module := contestservice.NewInMemoryModule(seed, nil)
	ctx := context.Background()

	_, err := module.Handler.ActivateContestHandler(ctx, "contest-done", "mod-1", httptransport.ActivateContestRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition for completed contest, got %v", err)
	}
	_, err = module.Handler.ActivateContestHandler(ctx, "contest-live", "mod-1", httptransport.ActivateContestRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition for active contest, got %v", err)
	}
	_, err = module.Handler.ActivateContestHandler(ctx, "missing", "mod-1", httptransport.ActivateContestRequest{})
	if !errors.Is(err, domainerrors.ErrContestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListContestsByStatus(t *testing.T) {
	seed := []entities.Contest{
		{ContestID: "c-1", ModeratorID: "mod-1", Title: "One", EntryLimitPerUser: 1, AllowedRatings: 1, Status: entities.ContestStatusActive},
		{ContestID: "c-2", ModeratorID: "mod-1", Title: "Two", EntryLimitPerUser: 1, AllowedRatings: 1, Status: entities.ContestStatusPending},
		{ContestID: "c-3", ModeratorID: "mod-1", Title: "Three", EntryLimitPerUser: 1, AllowedRatings: 1, Status: entities.ContestStatusActive},
	}
	module := contestservice.NewInMemoryModule(seed, nil)
	ctx := context.Background()

	listed, err := module.Handler.ListContestsHandler(ctx, "active", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed.Items) != 2 {
		t.Fatalf("expected two active contests, got %d", len(listed.Items))
	}
}

func TestParsePrizePositionsDropsMalformedItems(t *testing.T) {
	raw := json.RawMessage(`[
		{"position":1,"percentage":50},
		null,
		{"position":"first","percentage":30},
		{"position":2},
		{"percentage":20},
		{"position":0,"percentage":10},
		{"position":1.5,"percentage":10},
		{"position":-3,"percentage":10},
		{"position":1,"percentage":99},
		{"position":3,"percentage":-1},
		{"position":2,"percentage":30}
	]`)
	positions := entities.ParsePrizePositions(raw)
	if len(positions) != 2 {
		t.Fatalf("expected two surviving positions, got %d: %+v", len(positions), positions)
	}
	if positions[0].Position != 1 || positions[0].Percentage != 50 {
		t.Fatalf("unexpected first position: %+v", positions[0])
	}
	if positions[1].Position != 2 || positions[1].Percentage != 30 {
		t.Fatalf("unexpected second position: %+v", positions[1])
	}
}

func TestParsePrizePositionsRejectsNonArray(t *testing.T) {
	if got := entities.ParsePrizePositions(json.RawMessage(`{"position":1}`)); got != nil {
		t.Fatalf("expected nil for non-array config, got %+v", got)
	}
	if got := entities.ParsePrizePositions(nil); got != nil {
		t.Fatalf("expected nil for empty config, got %+v", got)
	}
}

func TestContestAcceptsEntriesBoundary(t *testing.T) {
	endAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contest := entities.Contest{
		Status: entities.ContestStatusActive,
		EndAt:  &endAt,
	}
	if !contest.AcceptsEntries(endAt) {
		t.Fatalf("expected submission at exactly the deadline to be accepted")
	}
	if contest.AcceptsEntries(endAt.Add(time.Nanosecond)) {
		t.Fatalf("expected submission after the deadline to be rejected")
	}
	contest.Status = entities.ContestStatusPending
	if contest.AcceptsEntries(endAt.Add(-time.Hour)) {
		t.Fatalf("expected pending contest to reject entries")
	}
}
