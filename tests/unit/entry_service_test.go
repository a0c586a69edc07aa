package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	entryservice "crucible/contexts/contest-core/entry-service"
	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/domain/services"
	"crucible/contexts/contest-core/entry-service/domain/valueobjects"
	"crucible/contexts/contest-core/entry-service/ports"
	httptransport "crucible/contexts/contest-core/entry-service/transport/http"
)

func activeContestProjection(contestID string) ports.ContestProjection {
	endAt := time.Now().UTC().Add(24 * time.Hour)
	return ports.ContestProjection{
		ContestID:         contestID,
		Status:            "active",
		EntryFee:          100,
		EntryLimitPerUser: 2,
		AllowedRatings:    1,
		EndAt:             &endAt,
	}
}

func TestSubmitEntryDebitsFeeAndStoresEntry(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(activeContestProjection("contest-1"))
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-1", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetBalance("user-1", 250)

	entry, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-entry-1", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if entry.ContestID != "contest-1" || entry.UserID != "user-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if got := module.Store.Balance("user-1"); got != 150 {
		t.Fatalf("expected fee debit to 150, got %d", got)
	}

	listed, err := module.Handler.ListContestEntriesHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed.Items) != 1 {
		t.Fatalf("expected one entry, got %d", len(listed.Items))
	}
}

func TestSubmitEntryIdempotentReplay(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(activeContestProjection("contest-1"))
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-1", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetBalance("user-1", 200)

	req := httptransport.SubmitEntryRequest{ContestID: "contest-1", ImageID: "img-1"}
	first, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-entry-2", req)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-entry-2", req)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.EntryID != second.EntryID {
		t.Fatalf("expected replay to return same entry id")
	}
	if !second.Replayed {
		t.Fatalf("expected replay flag on second response")
	}
	if got := module.Store.Balance("user-1"); got != 100 {
		t.Fatalf("expected a single fee debit, balance %d", got)
	}
}

func TestSubmitEntryInsufficientBalanceRollsBack(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SetContest(activeContestProjection("contest-1"))
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-1", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetBalance("user-1", 40)

	_, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-entry-3", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-1",
	})
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := module.Store.Balance("user-1"); got != 40 {
		t.Fatalf("expected untouched balance after rollback, got %d", got)
	}
	listed, err := module.Handler.ListContestEntriesHandler(ctx, "contest-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed.Items) != 0 {
		t.Fatalf("expected no entry stored after rollback, got %d", len(listed.Items))
	}
}

func TestSubmitEntryValidationRejections(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	contest := activeContestProjection("contest-1")
	contest.EntryLimitPerUser = 1
	module.Store.SetContest(contest)
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-owned", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-foreign", OwnerID: "someone-else", ContentRating: 1})
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-mature", OwnerID: "user-1", ContentRating: 4})
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-second", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetBalance("user-1", 1000)

	cases := []struct {
		name    string
		userID  string
		imageID string
		kind    services.ValidationErrorKind
	}{
		{name: "foreign image", userID: "user-1", imageID: "img-foreign", kind: services.KindNotOwner},
		{name: "incompatible rating", userID: "user-1", imageID: "img-mature", kind: services.KindIncompatibleRating},
	}
	for i, tc := range cases {
		_, err := module.Handler.SubmitEntryHandler(ctx, tc.userID, "idem-reject-"+tc.name, httptransport.SubmitEntryRequest{
			ContestID: "contest-1",
			ImageID:   tc.imageID,
		})
		var validation *services.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("case %d (%s): expected validation error, got %v", i, tc.name, err)
		}
		if validation.Kind != tc.kind {
			t.Fatalf("case %d (%s): expected kind %s, got %s", i, tc.name, tc.kind, validation.Kind)
		}
	}

	// First accepted entry, then a duplicate image, then the per-user limit.
	if _, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-ok-1", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-owned",
	}); err != nil {
		t.Fatalf("valid submission failed: %v", err)
	}

	_, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-dup-1", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-owned",
	})
	var validation *services.ValidationError
	if !errors.As(err, &validation) || validation.Kind != services.KindDuplicateImage {
		t.Fatalf("expected duplicate image rejection, got %v", err)
	}

	_, err = module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-limit-1", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-second",
	})
	if !errors.As(err, &validation) || validation.Kind != services.KindUserLimitReached {
		t.Fatalf("expected user limit rejection, got %v", err)
	}
}

func TestSubmitEntryContestCapacityAndStatus(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	maxTotal := 1
	full := activeContestProjection("contest-full")
	full.MaxTotalEntries = &maxTotal
	module.Store.SetContest(full)
	closed := activeContestProjection("contest-closed")
	closed.Status = "pending"
	module.Store.SetContest(closed)

	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-a", OwnerID: "user-1", ContentRating: 1})
	module.Store.SetImage(ports.ImageMetadata{ImageID: "img-b", OwnerID: "user-2", ContentRating: 1})
	module.Store.SetBalance("user-1", 500)
	module.Store.SetBalance("user-2", 500)

	if _, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "idem-cap-1", httptransport.SubmitEntryRequest{
		ContestID: "contest-full",
		ImageID:   "img-a",
	}); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	_, err := module.Handler.SubmitEntryHandler(ctx, "user-2", "idem-cap-2", httptransport.SubmitEntryRequest{
		ContestID: "contest-full",
		ImageID:   "img-b",
	})
	var validation *services.ValidationError
	if !errors.As(err, &validation) || validation.Kind != services.KindContestFull {
		t.Fatalf("expected contest full rejection, got %v", err)
	}

	_, err = module.Handler.SubmitEntryHandler(ctx, "user-2", "idem-cap-3", httptransport.SubmitEntryRequest{
		ContestID: "contest-closed",
		ImageID:   "img-b",
	})
	if !errors.As(err, &validation) || validation.Kind != services.KindNotAcceptingEntries {
		t.Fatalf("expected not accepting rejection, got %v", err)
	}
}

func TestSubmitEntryRequiresIdempotencyKey(t *testing.T) {
	module := entryservice.NewInMemoryModule(nil)
	ctx := context.Background()

	_, err := module.Handler.SubmitEntryHandler(ctx, "user-1", "", httptransport.SubmitEntryRequest{
		ContestID: "contest-1",
		ImageID:   "img-1",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected idempotency key required, got %v", err)
	}
}

func TestCheckContestOpenDeadlineBoundary(t *testing.T) {
	endAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if violation := services.CheckContestOpen(true, &endAt, endAt); violation != nil {
		t.Fatalf("expected submission at exactly the deadline to pass, got %+v", violation)
	}
	violation := services.CheckContestOpen(true, &endAt, endAt.Add(time.Nanosecond))
	if violation == nil || violation.Kind != services.KindContestEnded {
		t.Fatalf("expected contest ended past the deadline, got %+v", violation)
	}
	if violation := services.CheckContestOpen(true, nil, endAt); violation != nil {
		t.Fatalf("expected open-ended contest to accept, got %+v", violation)
	}
}

func TestCheckUserEntryLimitMessageWording(t *testing.T) {
	singular := services.CheckUserEntryLimit(1, 1)
	if singular == nil || singular.Message != "you may submit at most 1 entry to this contest" {
		t.Fatalf("unexpected singular message: %+v", singular)
	}
	plural := services.CheckUserEntryLimit(3, 3)
	if plural == nil || plural.Message != "you may submit at most 3 entries to this contest" {
		t.Fatalf("unexpected plural message: %+v", plural)
	}
	if violation := services.CheckUserEntryLimit(2, 3); violation != nil {
		t.Fatalf("expected under-limit count to pass, got %+v", violation)
	}
}

func TestRatingSetIntersection(t *testing.T) {
	if !valueobjects.Intersects(valueobjects.RatingGeneral|valueobjects.RatingMature, valueobjects.RatingMature) {
		t.Fatalf("expected overlapping sets to intersect")
	}
	if valueobjects.Intersects(valueobjects.RatingGeneral, valueobjects.RatingAdult) {
		t.Fatalf("expected disjoint sets not to intersect")
	}
	if valueobjects.Intersects(0, 0) {
		t.Fatalf("expected empty set not to intersect itself")
	}
	if !valueobjects.RatingSet(0).IsEmpty() {
		t.Fatalf("expected zero mask to be empty")
	}
}
