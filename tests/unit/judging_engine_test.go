package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	judgingengine "crucible/contexts/contest-core/judging-engine"
	"crucible/contexts/contest-core/judging-engine/application/queries"
	"crucible/contexts/contest-core/judging-engine/domain/entities"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"
	httptransport "crucible/contexts/contest-core/judging-engine/transport/http"
)

func TestRecordJudgmentAppliesDeltas(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(ports.ContestProjection{ContestID: "contest-1", Status: "active"})
	module.Store.SetEntryScore(entities.EntryScore{
		EntryID:   "entry-1",
		ContestID: "contest-1",
		UserID:    "user-1",
		Score:     2.5,
		VoteCount: 3,
	})

	err := module.Handler.RecordJudgmentHandler(ctx, "judge-1", httptransport.RecordJudgmentRequest{
		ContestID:  "contest-1",
		EntryID:    "entry-1",
		ScoreDelta: 1.5,
		VoteDelta:  1,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	err = module.Handler.RecordJudgmentHandler(ctx, "judge-2", httptransport.RecordJudgmentRequest{
		ContestID:  "contest-1",
		EntryID:    "entry-1",
		ScoreDelta: -0.5,
		VoteDelta:  1,
	})
	if err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	score, err := module.Store.GetEntryScore(ctx, "entry-1")
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 3.5 {
		t.Fatalf("expected aggregate score 3.5, got %v", score.Score)
	}
	if score.VoteCount != 5 {
		t.Fatalf("expected vote count 5, got %d", score.VoteCount)
	}
	if got := len(module.Store.Judgments()); got != 2 {
		t.Fatalf("expected two audit judgments, got %d", got)
	}
}

func TestRecordJudgmentDropsDuplicateEvents(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(ports.ContestProjection{ContestID: "contest-1", Status: "active"})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-1", ContestID: "contest-1", UserID: "user-1"})

	req := httptransport.RecordJudgmentRequest{
		ContestID:  "contest-1",
		EntryID:    "entry-1",
		ScoreDelta: 2,
		VoteDelta:  1,
		EventID:    "evt-1",
	}
	if err := module.Handler.RecordJudgmentHandler(ctx, "judge-1", req); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := module.Handler.RecordJudgmentHandler(ctx, "judge-1", req); err != nil {
		t.Fatalf("duplicate should be dropped silently, got %v", err)
	}

	score, err := module.Store.GetEntryScore(ctx, "entry-1")
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 2 || score.VoteCount != 1 {
		t.Fatalf("expected deltas applied exactly once, got score %v votes %d", score.Score, score.VoteCount)
	}
}

func TestRecordJudgmentRejectsInactiveContest(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(ports.ContestProjection{ContestID: "contest-done", Status: "completed"})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-1", ContestID: "contest-done", UserID: "user-1"})

	err := module.Handler.RecordJudgmentHandler(ctx, "judge-1", httptransport.RecordJudgmentRequest{
		ContestID:  "contest-done",
		EntryID:    "entry-1",
		ScoreDelta: 1,
	})
	if !errors.Is(err, domainerrors.ErrContestNotJudgeable) {
		t.Fatalf("expected not judgeable, got %v", err)
	}
}

func TestRecordJudgmentRejectsEmptyDeltas(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	err := module.Handler.RecordJudgmentHandler(ctx, "judge-1", httptransport.RecordJudgmentRequest{
		ContestID: "contest-1",
		EntryID:   "entry-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidJudgmentInput) {
		t.Fatalf("expected invalid input for zero deltas, got %v", err)
	}
}

func TestStandingsOrderingAndTieBreaks(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	early := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	module.Store.SetContest(ports.ContestProjection{ContestID: "contest-1", Status: "active"})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-b", ContestID: "contest-1", UserID: "user-b", Score: 10, SubmittedAt: late})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-a", ContestID: "contest-1", UserID: "user-a", Score: 10, SubmittedAt: early})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-c", ContestID: "contest-1", UserID: "user-c", Score: 25, SubmittedAt: late})

	standings, err := module.Handler.StandingsHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("standings failed: %v", err)
	}
	if len(standings.Items) != 3 {
		t.Fatalf("expected three standings, got %d", len(standings.Items))
	}
	wantOrder := []string{"entry-c", "entry-a", "entry-b"}
	for i, want := range wantOrder {
		if standings.Items[i].EntryID != want {
			t.Fatalf("rank %d: expected %s, got %s", i+1, want, standings.Items[i].EntryID)
		}
		if standings.Items[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, standings.Items[i].Rank)
		}
	}
}

func TestRankEntryScoresIdentifierTieBreak(t *testing.T) {
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ranked := queries.RankEntryScores([]entities.EntryScore{
		{EntryID: "entry-z", ContestID: "contest-1", Score: 5, SubmittedAt: at},
		{EntryID: "entry-a", ContestID: "contest-1", Score: 5, SubmittedAt: at},
	})
	if len(ranked) != 2 {
		t.Fatalf("expected two ranked entries, got %d", len(ranked))
	}
	if ranked[0].EntryID != "entry-a" || ranked[1].EntryID != "entry-z" {
		t.Fatalf("expected entry id tie break, got %s then %s", ranked[0].EntryID, ranked[1].EntryID)
	}
}

func TestStandingsServedFromCacheAfterFirstRead(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(ports.ContestProjection{ContestID: "contest-1", Status: "active"})
	module.Store.SetEntryScore(entities.EntryScore{EntryID: "entry-1", ContestID: "contest-1", UserID: "user-1", Score: 4})

	first, err := module.Handler.StandingsHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("first standings read failed: %v", err)
	}

	cached, found, err := module.Store.GetStandings(ctx, "contest-1")
	if err != nil {
		t.Fatalf("cache lookup failed: %v", err)
	}
	if !found {
		t.Fatalf("expected standings cached after first read")
	}
	if len(cached) != len(first.Items) {
		t.Fatalf("expected cached standings to match response, got %d and %d", len(cached), len(first.Items))
	}
}
