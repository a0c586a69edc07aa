package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crucible/contexts/contest-core/contest-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/contest-service/domain/errors"
	"crucible/contexts/contest-core/contest-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *Repository) CreateContest(ctx context.Context, contest entities.Contest) error {
	row, err := contestModelFromEntity(contest)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrContestConflict
		}
		return r.logError("contest_repo_create_failed", err,
			"contest_id", strings.TrimSpace(contest.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	var row contestModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contest{}, domainerrors.ErrContestNotFound
		}
		return entities.Contest{}, r.logError("contest_repo_get_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateContest(ctx context.Context, contest entities.Contest) error {
	row, err := contestModelFromEntity(contest)
	if err != nil {
		return err
	}
	update := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":                row.Title,
			"description":          row.Description,
			"entry_fee":            row.EntryFee,
			"entry_limit_per_user": row.EntryLimitPerUser,
			"max_total_entries":    row.MaxTotalEntries,
			"allowed_ratings":      row.AllowedRatings,
			"end_at":               row.EndAt,
			"prize_positions":      row.PrizePositions,
			"status":               row.Status,
			"updated_at":           row.UpdatedAt,
			"activated_at":         row.ActivatedAt,
			"completed_at":         row.CompletedAt,
			"cancelled_at":         row.CancelledAt,
		}),
	}).Create(&row)
	if update.Error != nil {
		return r.logError("contest_repo_update_failed", update.Error,
			"contest_id", strings.TrimSpace(contest.ContestID),
		)
	}
	return nil
}

func (r *Repository) ListContestsByStatus(
	ctx context.Context,
	status entities.ContestStatus,
	limit int,
) ([]entities.Contest, error) {
	if limit <= 0 {
		limit = 50
	}
	tx := r.db.WithContext(ctx).Model(&contestModel{})
	if strings.TrimSpace(string(status)) != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var rows []contestModel
	if err := tx.Order("created_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_failed", err, "status", string(status))
	}
	items := make([]entities.Contest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendState(ctx context.Context, history entities.StateHistory) error {
	row := historyModelFromEntity(history)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("contest_repo_append_state_failed", err,
			"contest_id", strings.TrimSpace(history.ContestID),
		)
	}
	return nil
}

func (r *Repository) ListStateHistory(ctx context.Context, contestID string) ([]entities.StateHistory, error) {
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_history_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]entities.StateHistory, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("contest_repo_idempotency_get_failed", err)
	}
	if !row.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		ContestID:   row.ContestID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		ContestID:   strings.TrimSpace(record.ContestID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_idempotency_put_failed", create.Error)
	}
	if create.RowsAffected == 0 {
		var existing idempotencyModel
		if err := r.db.WithContext(ctx).Where("key = ?", row.Key).First(&existing).Error; err != nil {
			return r.logError("contest_repo_idempotency_recheck_failed", err)
		}
		if existing.RequestHash != row.RequestHash || existing.ContestID != row.ContestID {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
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
		return r.logError("contest_repo_outbox_append_failed", create.Error, "outbox_id", outboxID)
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
		return nil, r.logError("contest_repo_outbox_list_failed", err)
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
		return r.logError("contest_repo_outbox_mark_failed", update.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-core/contest-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("contest repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
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
	ID                string     `gorm:"column:id;primaryKey"`
	ModeratorID       string     `gorm:"column:moderator_id"`
	Title             string     `gorm:"column:title"`
	Description       string     `gorm:"column:description"`
	EntryFee          int64      `gorm:"column:entry_fee"`
	EntryLimitPerUser int        `gorm:"column:entry_limit_per_user"`
	MaxTotalEntries   *int       `gorm:"column:max_total_entries"`
	AllowedRatings    int64      `gorm:"column:allowed_ratings"`
	EndAt             *time.Time `gorm:"column:end_at"`
	PrizePositions    []byte     `gorm:"column:prize_positions;type:jsonb"`
	Status            string     `gorm:"column:status"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
	ActivatedAt       *time.Time `gorm:"column:activated_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at"`
}

func (contestModel) TableName() string {
	return "contests"
}

type prizePositionRow struct {
	Position   int     `json:"position"`
	Percentage float64 `json:"percentage"`
}

func contestModelFromEntity(contest entities.Contest) (contestModel, error) {
	positions := make([]prizePositionRow, 0, len(contest.PrizePositions))
	for _, item := range contest.PrizePositions {
		positions = append(positions, prizePositionRow{
			Position:   item.Position,
			Percentage: item.Percentage,
		})
	}
	encoded, err := json.Marshal(positions)
	if err != nil {
		return contestModel{}, err
	}

	row := contestModel{
		ID:                strings.TrimSpace(contest.ContestID),
		ModeratorID:       strings.TrimSpace(contest.ModeratorID),
		Title:             strings.TrimSpace(contest.Title),
		Description:       strings.TrimSpace(contest.Description),
		EntryFee:          contest.EntryFee,
		EntryLimitPerUser: contest.EntryLimitPerUser,
		MaxTotalEntries:   contest.MaxTotalEntries,
		AllowedRatings:    int64(contest.AllowedRatings),
		EndAt:             contest.EndAt,
		PrizePositions:    encoded,
		Status:            string(contest.Status),
		CreatedAt:         contest.CreatedAt.UTC(),
		UpdatedAt:         contest.UpdatedAt.UTC(),
		ActivatedAt:       contest.ActivatedAt,
		CompletedAt:       contest.CompletedAt,
		CancelledAt:       contest.CancelledAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m contestModel) toEntity() entities.Contest {
	var positions []prizePositionRow
	_ = json.Unmarshal(m.PrizePositions, &positions)
	prizePositions := make([]entities.PrizePosition, 0, len(positions))
	for _, item := range positions {
		prizePositions = append(prizePositions, entities.PrizePosition{
			Position:   item.Position,
			Percentage: item.Percentage,
		})
	}
	return entities.Contest{
		ContestID:         m.ID,
		ModeratorID:       m.ModeratorID,
		Title:             m.Title,
		Description:       m.Description,
		EntryFee:          m.EntryFee,
		EntryLimitPerUser: m.EntryLimitPerUser,
		MaxTotalEntries:   m.MaxTotalEntries,
		AllowedRatings:    uint(m.AllowedRatings),
		EndAt:             m.EndAt,
		PrizePositions:    prizePositions,
		Status:            entities.ContestStatus(m.Status),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		ActivatedAt:       m.ActivatedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
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

func historyModelFromEntity(history entities.StateHistory) historyModel {
	return historyModel{
		ID:           strings.TrimSpace(history.HistoryID),
		ContestID:    strings.TrimSpace(history.ContestID),
		FromState:    string(history.FromState),
		ToState:      string(history.ToState),
		ChangedBy:    strings.TrimSpace(history.ChangedBy),
		ChangeReason: strings.TrimSpace(history.ChangeReason),
		CreatedAt:    history.CreatedAt.UTC(),
	}
}

func (m historyModel) toEntity() entities.StateHistory {
	return entities.StateHistory{
		HistoryID:    m.ID,
		ContestID:    m.ContestID,
		FromState:    entities.ContestStatus(m.FromState),
		ToState:      entities.ContestStatus(m.ToState),
		ChangedBy:    m.ChangedBy,
		ChangeReason: m.ChangeReason,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	ContestID   string    `gorm:"column:contest_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "contest_service_idempotency"
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
	return "contest_outbox"
}
