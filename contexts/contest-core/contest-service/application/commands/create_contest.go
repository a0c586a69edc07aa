package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "crucible/contexts/contest-core/contest-service/application"
	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	"crucible/contexts/contest-core/contest-service/ports"
)

// CreateContestCommand is the write-model input for contest creation. Prize
// configuration arrives as loosely-typed JSON and is validated once here at
// the boundary; the payout path never re-validates it.
type CreateContestCommand struct {
	ModeratorID       string
	IdempotencyKey    string
	Title             string
	Description       string
	EntryFee          int64
	EntryLimitPerUser int
	MaxTotalEntries   *int
	AllowedRatings    uint
	EndAt             *time.Time
	PrizeConfig       json.RawMessage
	StartActive       bool
}

type CreateContestResult struct {
	Contest  entities.Contest
	Replayed bool
}

type CreateContestUseCase struct {
	Contests       ports.ContestRepository
	History        ports.HistoryRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc CreateContestUseCase) Execute(ctx context.Context, cmd CreateContestCommand) (CreateContestResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("contest create processing started",
		"event", "contest_create_started",
		"module", "contest-core/contest-service",
		"layer", "application",
		"moderator_id", strings.TrimSpace(cmd.ModeratorID),
	)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateContestResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCreateContestCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateContestResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateContestResult{}, domainerrors.ErrIdempotencyConflict
		}
		contest, err := uc.Contests.GetContest(ctx, record.ContestID)
		if err != nil {
			return CreateContestResult{}, err
		}
		logger.Info("contest create replayed",
			"event", "contest_create_replayed",
			"module", "contest-core/contest-service",
			"layer", "application",
			"contest_id", contest.ContestID,
		)
		return CreateContestResult{Contest: contest, Replayed: true}, nil
	}

	status := entities.ContestStatusPending
	var activatedAt *time.Time
	if cmd.StartActive {
		status = entities.ContestStatusActive
		activated := now
		activatedAt = &activated
	}

	contestID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateContestResult{}, err
	}
	contest := entities.Contest{
		ContestID:         strings.TrimSpace(contestID),
		ModeratorID:       strings.TrimSpace(cmd.ModeratorID),
		Title:             strings.TrimSpace(cmd.Title),
		Description:       strings.TrimSpace(cmd.Description),
		EntryFee:          cmd.EntryFee,
		EntryLimitPerUser: cmd.EntryLimitPerUser,
		MaxTotalEntries:   cmd.MaxTotalEntries,
		AllowedRatings:    cmd.AllowedRatings,
		EndAt:             normalizeEndAt(cmd.EndAt),
		PrizePositions:    entities.ParsePrizePositions(cmd.PrizeConfig),
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
		ActivatedAt:       activatedAt,
	}
	if !contest.ValidateBasics() {
		logger.Warn("contest create validation failed",
			"event", "contest_create_validation_failed",
			"module", "contest-core/contest-service",
			"layer", "application",
			"moderator_id", strings.TrimSpace(cmd.ModeratorID),
		)
		return CreateContestResult{}, domainerrors.ErrInvalidContestInput
	}

	if err := uc.Contests.CreateContest(ctx, contest); err != nil {
		return CreateContestResult{}, err
	}
	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateContestResult{}, err
	}
	if err := uc.History.AppendState(ctx, entities.StateHistory{
		HistoryID:    historyID,
		ContestID:    contest.ContestID,
		FromState:    "",
		ToState:      contest.Status,
		ChangedBy:    contest.ModeratorID,
		ChangeReason: "contest created",
		CreatedAt:    now,
	}); err != nil {
		return CreateContestResult{}, err
	}
	if err := uc.appendContestEvent(ctx, "contest.created", contest, now); err != nil {
		return CreateContestResult{}, err
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		ContestID:   contest.ContestID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CreateContestResult{}, err
	}

	logger.Info("contest created",
		"event", "contest_created",
		"module", "contest-core/contest-service",
		"layer", "application",
		"contest_id", contest.ContestID,
		"status", string(contest.Status),
		"entry_fee", contest.EntryFee,
		"prize_positions", len(contest.PrizePositions),
	)
	return CreateContestResult{Contest: contest}, nil
}

func (uc CreateContestUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CreateContestUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc CreateContestUseCase) appendContestEvent(
	ctx context.Context,
	eventType string,
	contest entities.Contest,
	occurredAt time.Time,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newContestEnvelope(eventID, eventType, contest.ContestID, occurredAt, map[string]any{
		"contest_id":           contest.ContestID,
		"moderator_id":         contest.ModeratorID,
		"status":               string(contest.Status),
		"entry_fee":            contest.EntryFee,
		"entry_limit_per_user": contest.EntryLimitPerUser,
		"occurred_at":          occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func normalizeEndAt(endAt *time.Time) *time.Time {
	if endAt == nil {
		return nil
	}
	normalized := endAt.UTC()
	return &normalized
}

func hashCreateContestCommand(cmd CreateContestCommand) string {
	payload := map[string]any{
		"moderator_id":         strings.TrimSpace(cmd.ModeratorID),
		"title":                strings.TrimSpace(cmd.Title),
		"entry_fee":            cmd.EntryFee,
		"entry_limit_per_user": cmd.EntryLimitPerUser,
		"allowed_ratings":      cmd.AllowedRatings,
		"start_active":         cmd.StartActive,
		"prize_config":         string(cmd.PrizeConfig),
		"op":                   "create_contest",
	}
	if cmd.EndAt != nil {
		payload["end_at"] = cmd.EndAt.UTC().Format(time.RFC3339Nano)
	}
	if cmd.MaxTotalEntries != nil {
		payload["max_total_entries"] = *cmd.MaxTotalEntries
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
