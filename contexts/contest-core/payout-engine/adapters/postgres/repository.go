package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/domain/services"
	"crucible/contexts/contest-core/payout-engine/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetContest(ctx context.Context, contestID string) (ports.ContestRecord, error) {
	var row contestModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ContestRecord{}, domainerrors.ErrContestNotFound
		}
		return ports.ContestRecord{}, r.logError("payout_repo_contest_get_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return row.toRecord(), nil
}

func (r *Repository) SetContestStatus(
	ctx context.Context,
	contestID, fromStatus, toStatus, changedBy, reason string,
	at time.Time,
) error {
	columns := map[string]any{
		"status":     toStatus,
		"updated_at": at.UTC(),
	}
	switch toStatus {
	case "completed":
		columns["completed_at"] = at.UTC()
	case "cancelled":
		columns["cancelled_at"] = at.UTC()
	}
	update := r.db.WithContext(ctx).Model(&contestModel{}).
		Where("id = ? AND status = ?", strings.TrimSpace(contestID), fromStatus).
		Updates(columns)
	if update.Error != nil {
		return r.logError("payout_repo_status_update_failed", update.Error,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrContestNotFinalizable
	}
	history := historyModel{
		ID:           uuid.NewString(),
		ContestID:    strings.TrimSpace(contestID),
		FromState:    fromStatus,
		ToState:      toStatus,
		ChangedBy:    strings.TrimSpace(changedBy),
		ChangeReason: strings.TrimSpace(reason),
		CreatedAt:    at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&history).Error; err != nil {
		return r.logError("payout_repo_history_append_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return nil
}

func (r *Repository) ListEntriesByContest(ctx context.Context, contestID string) ([]ports.EntryRecord, error) {
	var rows []entryModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("payout_repo_entry_list_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]ports.EntryRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toRecord())
	}
	return items, nil
}

func (r *Repository) SetEntryResult(
	ctx context.Context,
	entryID string,
	finalPosition int,
	prizeAmount int64,
	at time.Time,
) error {
	update := r.db.WithContext(ctx).Model(&entryModel{}).
		Where("id = ?", strings.TrimSpace(entryID)).
		Updates(map[string]any{
			"final_position": finalPosition,
			"prize_amount":   prizeAmount,
			"updated_at":     at.UTC(),
		})
	if update.Error != nil {
		return r.logError("payout_repo_entry_result_failed", update.Error,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrContestNotFound
	}
	return nil
}

func (r *Repository) ListActiveContestsPastDeadline(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var contestIDs []string
	if err := r.db.WithContext(ctx).Model(&contestModel{}).
		Where("status = ? AND end_at IS NOT NULL AND end_at <= ?", "active", now.UTC()).
		Order("end_at ASC").
		Limit(limit).
		Pluck("id", &contestIDs).Error; err != nil {
		return nil, r.logError("payout_repo_deadline_list_failed", err)
	}
	return contestIDs, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	row := outboxModel{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("payout_repo_outbox_append_failed", create.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("payout_repo_outbox_list_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if update.Error != nil {
		return r.logError("payout_repo_outbox_mark_failed", update.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-core/payout-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payout repository operation failed", fields...)
	return err
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies the IDGenerator port with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type contestModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	ModeratorID    string     `gorm:"column:moderator_id"`
	Status         string     `gorm:"column:status"`
	EntryFee       int64      `gorm:"column:entry_fee"`
	EndAt          *time.Time `gorm:"column:end_at"`
	PrizePositions []byte     `gorm:"column:prize_positions;type:jsonb"`
}

func (contestModel) TableName() string {
	return "contests"
}

type prizeSplitRow struct {
	Position   int     `json:"position"`
	Percentage float64 `json:"percentage"`
}

func (m contestModel) toRecord() ports.ContestRecord {
	var rows []prizeSplitRow
	_ = json.Unmarshal(m.PrizePositions, &rows)
	splits := make([]services.PrizeSplit, 0, len(rows))
	for _, row := range rows {
		splits = append(splits, services.PrizeSplit{
			Position:   row.Position,
			Percentage: row.Percentage,
		})
	}
	return ports.ContestRecord{
		ContestID:   m.ID,
		ModeratorID: m.ModeratorID,
		Status:      m.Status,
		EntryFee:    m.EntryFee,
		EndAt:       m.EndAt,
		PrizeSplits: splits,
	}
}

type entryModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ContestID     string    `gorm:"column:contest_id"`
	UserID        string    `gorm:"column:user_id"`
	Score         float64   `gorm:"column:score"`
	VoteCount     int       `gorm:"column:vote_count"`
	SubmittedAt   time.Time `gorm:"column:submitted_at"`
	FinalPosition *int      `gorm:"column:final_position"`
	PrizeAmount   *int64    `gorm:"column:prize_amount"`
}

func (entryModel) TableName() string {
	return "entries"
}

func (m entryModel) toRecord() ports.EntryRecord {
	return ports.EntryRecord{
		EntryID:       m.ID,
		UserID:        m.UserID,
		Score:         m.Score,
		VoteCount:     m.VoteCount,
		SubmittedAt:   m.SubmittedAt.UTC(),
		FinalPosition: m.FinalPosition,
		PrizeAmount:   m.PrizeAmount,
	}
}

type historyModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	ContestID    string    `gorm:"column:contest_id"`
	FromState    string    `gorm:"column:from_state"`
	ToState      string    `gorm:"column:to_state"`
	ChangedBy    string    `gorm:"column:changed_by"`
	ChangeReason string    `gorm:"column:change_reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (historyModel) TableName() string {
	return "contest_state_history"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "payout_outbox"
}
