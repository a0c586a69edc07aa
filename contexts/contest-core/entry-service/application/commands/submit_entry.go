package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "crucible/contexts/contest-core/entry-service/application"
	"crucible/contexts/contest-core/entry-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/domain/services"
	"crucible/contexts/contest-core/entry-service/domain/valueobjects"
	"crucible/contexts/contest-core/entry-service/ports"
)

// SubmitEntryCommand is the write-model input for contest submission.
type SubmitEntryCommand struct {
	ContestID      string
	UserID         string
	ImageID        string
	IdempotencyKey string
}

type SubmitEntryResult struct {
	Entry    entities.Entry
	Replayed bool
}

// SubmitEntryUseCase orchestrates submission: rule validation against facts
// read under the contest row lock, then fee debit plus entry creation as one
// atomic unit. A validation failure or ledger failure leaves no trace.
type SubmitEntryUseCase struct {
	Work           ports.UnitOfWork
	Entries        ports.EntryRepository
	Images         ports.ImageMetadataProvider
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc SubmitEntryUseCase) Execute(ctx context.Context, cmd SubmitEntryCommand) (SubmitEntryResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("entry submission processing started",
		"event", "entry_submit_started",
		"module", "contest-core/entry-service",
		"layer", "application",
		"contest_id", strings.TrimSpace(cmd.ContestID),
		"user_id", strings.TrimSpace(cmd.UserID),
		"image_id", strings.TrimSpace(cmd.ImageID),
	)
	if strings.TrimSpace(cmd.ContestID) == "" ||
		strings.TrimSpace(cmd.UserID) == "" ||
		strings.TrimSpace(cmd.ImageID) == "" {
		return SubmitEntryResult{}, domainerrors.ErrInvalidSubmissionInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return SubmitEntryResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashSubmitEntryCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return SubmitEntryResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return SubmitEntryResult{}, domainerrors.ErrIdempotencyConflict
		}
		entry, err := uc.Entries.GetEntry(ctx, record.EntryID)
		if err != nil {
			return SubmitEntryResult{}, err
		}
		logger.Info("entry submission replayed",
			"event", "entry_submit_replayed",
			"module", "contest-core/entry-service",
			"layer", "application",
			"entry_id", entry.EntryID,
			"contest_id", entry.ContestID,
		)
		return SubmitEntryResult{Entry: entry, Replayed: true}, nil
	}

	image, err := uc.Images.GetImage(ctx, strings.TrimSpace(cmd.ImageID))
	if err != nil {
		return SubmitEntryResult{}, err
	}

	entryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitEntryResult{}, err
	}

	var created entities.Entry
	err = uc.Work.Execute(ctx, strings.TrimSpace(cmd.ContestID), func(tx ports.TxContext) error {
		contest, err := tx.Contests().GetContest(ctx, strings.TrimSpace(cmd.ContestID))
		if err != nil {
			return err
		}
		imageIDs, err := tx.Entries().ListImageIDsByContest(ctx, contest.ContestID)
		if err != nil {
			return err
		}
		userCount, err := tx.Entries().CountEntriesByUser(ctx, contest.ContestID, strings.TrimSpace(cmd.UserID))
		if err != nil {
			return err
		}
		totalCount, err := tx.Entries().CountEntriesByContest(ctx, contest.ContestID)
		if err != nil {
			return err
		}

		if violation := services.ValidateSubmission(services.SubmissionFacts{
			ImageRating:          valueobjects.RatingSet(image.ContentRating),
			ContestAllowedRating: valueobjects.RatingSet(contest.AllowedRatings),
			ImageOwnerID:         image.OwnerID,
			SubmittingUserID:     strings.TrimSpace(cmd.UserID),
			ExistingImageIDs:     imageIDs,
			NewImageID:           image.ImageID,
			UserEntryCount:       userCount,
			EntryLimitPerUser:    contest.EntryLimitPerUser,
			TotalEntryCount:      totalCount,
			MaxTotalEntries:      contest.MaxTotalEntries,
			ContestActive:        strings.EqualFold(contest.Status, "active"),
			EndAt:                contest.EndAt,
			Now:                  now,
		}); violation != nil {
			logger.Warn("entry submission rejected",
				"event", "entry_submit_rejected",
				"module", "contest-core/entry-service",
				"layer", "application",
				"contest_id", contest.ContestID,
				"user_id", strings.TrimSpace(cmd.UserID),
				"error_kind", string(violation.Kind),
			)
			return violation
		}

		if contest.EntryFee > 0 {
			if err := tx.Ledger().Debit(ctx, strings.TrimSpace(cmd.UserID), contest.EntryFee); err != nil {
				return err
			}
		}

		created = entities.Entry{
			EntryID:       strings.TrimSpace(entryID),
			ContestID:     contest.ContestID,
			UserID:        strings.TrimSpace(cmd.UserID),
			ImageID:       image.ImageID,
			ContentRating: valueobjects.RatingSet(image.ContentRating),
			SubmittedAt:   now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Entries().CreateEntry(ctx, created); err != nil {
			return err
		}
		return uc.appendSubmittedEvent(ctx, tx.Outbox(), created, contest.EntryFee, now)
	})
	if err != nil {
		return SubmitEntryResult{}, err
	}

	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		EntryID:     created.EntryID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return SubmitEntryResult{}, err
	}

	logger.Info("entry submitted",
		"event", "entry_submitted",
		"module", "contest-core/entry-service",
		"layer", "application",
		"entry_id", created.EntryID,
		"contest_id", created.ContestID,
		"user_id", created.UserID,
		"image_id", created.ImageID,
	)
	return SubmitEntryResult{Entry: created}, nil
}

func (uc SubmitEntryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc SubmitEntryUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc SubmitEntryUseCase) appendSubmittedEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	entry entities.Entry,
	entryFee int64,
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
		"entry_id":    entry.EntryID,
		"contest_id":  entry.ContestID,
		"user_id":     entry.UserID,
		"image_id":    entry.ImageID,
		"entry_fee":   entryFee,
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "entry.submitted",
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "entry-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     entry.ContestID,
		Data:             data,
	})
}

func hashSubmitEntryCommand(cmd SubmitEntryCommand) string {
	payload := map[string]string{
		"contest_id": strings.TrimSpace(cmd.ContestID),
		"user_id":    strings.TrimSpace(cmd.UserID),
		"image_id":   strings.TrimSpace(cmd.ImageID),
		"op":         "submit_entry",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
