package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crucible/contexts/contest-core/entry-service/domain/entities"
	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/domain/valueobjects"
	"crucible/contexts/contest-core/entry-service/ports"

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

func (r *Repository) CreateEntry(ctx context.Context, entry entities.Entry) error {
	row := entryModelFromEntity(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEntryConflict
		}
		return r.logError("entry_repo_create_failed", err,
			"entry_id", strings.TrimSpace(entry.EntryID),
			"contest_id", strings.TrimSpace(entry.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, entryID string) (entities.Entry, error) {
	var row entryModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(entryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entry{}, domainerrors.ErrEntryNotFound
		}
		return entities.Entry{}, r.logError("entry_repo_get_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListEntriesByContest(ctx context.Context, contestID string) ([]entities.Entry, error) {
	var rows []entryModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("entry_repo_list_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]entities.Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListImageIDsByContest(ctx context.Context, contestID string) ([]string, error) {
	var imageIDs []string
	if err := r.db.WithContext(ctx).Model(&entryModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("image_id ASC").
		Pluck("image_id", &imageIDs).Error; err != nil {
		return nil, r.logError("entry_repo_list_images_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return imageIDs, nil
}

func (r *Repository) CountEntriesByUser(ctx context.Context, contestID, userID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entryModel{}).
		Where("contest_id = ? AND user_id = ?", strings.TrimSpace(contestID), strings.TrimSpace(userID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("entry_repo_count_user_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return int(count), nil
}

func (r *Repository) CountEntriesByContest(ctx context.Context, contestID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entryModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("entry_repo_count_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return int(count), nil
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
		return ports.IdempotencyRecord{}, false, r.logError("entry_repo_idempotency_get_failed", err)
	}
	if !row.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		EntryID:     row.EntryID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		EntryID:     strings.TrimSpace(record.EntryID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("entry_repo_idempotency_put_failed", create.Error)
	}
	if create.RowsAffected == 0 {
		var existing idempotencyModel
		if err := r.db.WithContext(ctx).Where("key = ?", row.Key).First(&existing).Error; err != nil {
			return r.logError("entry_repo_idempotency_recheck_failed", err)
		}
		if existing.RequestHash != row.RequestHash || existing.EntryID != row.EntryID {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	return appendOutbox(r.db.WithContext(ctx), envelope, r.logError)
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
		return nil, r.logError("entry_repo_outbox_list_failed", err)
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
		return r.logError("entry_repo_outbox_mark_failed", update.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-core/entry-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("entry repository operation failed", fields...)
	return err
}

func appendOutbox(db *gorm.DB, envelope ports.EventEnvelope, logError func(string, error, ...any) error) error {
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
	create := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return logError("entry_repo_outbox_append_failed", create.Error, "outbox_id", outboxID)
	}
	return nil
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

type entryModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ContestID     string    `gorm:"column:contest_id"`
	UserID        string    `gorm:"column:user_id"`
	ImageID       string    `gorm:"column:image_id"`
	ContentRating int64     `gorm:"column:content_rating"`
	SubmittedAt   time.Time `gorm:"column:submitted_at"`
	Score         float64   `gorm:"column:score"`
	VoteCount     int       `gorm:"column:vote_count"`
	FinalPosition *int      `gorm:"column:final_position"`
	PrizeAmount   *int64    `gorm:"column:prize_amount"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (entryModel) TableName() string {
	return "entries"
}

func entryModelFromEntity(entry entities.Entry) entryModel {
	row := entryModel{
		ID:            strings.TrimSpace(entry.EntryID),
		ContestID:     strings.TrimSpace(entry.ContestID),
		UserID:        strings.TrimSpace(entry.UserID),
		ImageID:       strings.TrimSpace(entry.ImageID),
		ContentRating: int64(entry.ContentRating),
		SubmittedAt:   entry.SubmittedAt.UTC(),
		Score:         entry.Score,
		VoteCount:     entry.VoteCount,
		FinalPosition: entry.FinalPosition,
		PrizeAmount:   entry.PrizeAmount,
		CreatedAt:     entry.CreatedAt.UTC(),
		UpdatedAt:     entry.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m entryModel) toEntity() entities.Entry {
	return entities.Entry{
		EntryID:       m.ID,
		ContestID:     m.ContestID,
		UserID:        m.UserID,
		ImageID:       m.ImageID,
		ContentRating: valueobjects.RatingSet(m.ContentRating),
		SubmittedAt:   m.SubmittedAt.UTC(),
		Score:         m.Score,
		VoteCount:     m.VoteCount,
		FinalPosition: m.FinalPosition,
		PrizeAmount:   m.PrizeAmount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type contestProjectionModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	Status            string     `gorm:"column:status"`
	EntryFee          int64      `gorm:"column:entry_fee"`
	EntryLimitPerUser int        `gorm:"column:entry_limit_per_user"`
	MaxTotalEntries   *int       `gorm:"column:max_total_entries"`
	AllowedRatings    int64      `gorm:"column:allowed_ratings"`
	EndAt             *time.Time `gorm:"column:end_at"`
}

func (contestProjectionModel) TableName() string {
	return "contests"
}

func (m contestProjectionModel) toProjection() ports.ContestProjection {
	return ports.ContestProjection{
		ContestID:         m.ID,
		Status:            m.Status,
		EntryFee:          m.EntryFee,
		EntryLimitPerUser: m.EntryLimitPerUser,
		MaxTotalEntries:   m.MaxTotalEntries,
		AllowedRatings:    uint(m.AllowedRatings),
		EndAt:             m.EndAt,
	}
}

type imageModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	OwnerID       string `gorm:"column:owner_id"`
	ContentRating int64  `gorm:"column:content_rating"`
}

func (imageModel) TableName() string {
	return "images"
}

// ImageReader resolves image metadata from the shared images table.
type ImageReader struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewImageReader(db *gorm.DB, logger *slog.Logger) *ImageReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageReader{
		db:     db,
		logger: logger,
	}
}

func (r *ImageReader) GetImage(ctx context.Context, imageID string) (ports.ImageMetadata, error) {
	var row imageModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(imageID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ImageMetadata{}, domainerrors.ErrImageNotFound
		}
		r.logger.Error("image metadata lookup failed",
			"event", "entry_repo_image_get_failed",
			"module", "contest-core/entry-service",
			"layer", "adapter",
			"image_id", strings.TrimSpace(imageID),
			"error", err.Error(),
		)
		return ports.ImageMetadata{}, err
	}
	return ports.ImageMetadata{
		ImageID:       row.ID,
		OwnerID:       row.OwnerID,
		ContentRating: uint(row.ContentRating),
	}, nil
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	EntryID     string    `gorm:"column:entry_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "entry_service_idempotency"
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
	return "entry_outbox"
}
