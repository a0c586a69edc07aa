package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crucible/contexts/contest-core/judging-engine/domain/entities"
	domainerrors "crucible/contexts/contest-core/judging-engine/domain/errors"
	"crucible/contexts/contest-core/judging-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) GetContest(ctx context.Context, contestID string) (ports.ContestProjection, error) {
	var row contestStatusModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ContestProjection{}, domainerrors.ErrContestNotFound
		}
		return ports.ContestProjection{}, r.logError("judging_repo_contest_get_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return ports.ContestProjection{
		ContestID: row.ID,
		Status:    row.Status,
	}, nil
}

// ApplyJudgment adds both deltas in one guarded UPDATE so concurrent
// judgments never lose increments. Entries already stamped with a final
// position no longer match the predicate.
func (r *Repository) ApplyJudgment(
	ctx context.Context,
	contestID, entryID string,
	scoreDelta float64,
	voteDelta int,
) error {
	update := r.db.WithContext(ctx).Model(&entryScoreModel{}).
		Where("id = ? AND contest_id = ? AND final_position IS NULL",
			strings.TrimSpace(entryID), strings.TrimSpace(contestID)).
		Updates(map[string]any{
			"score":      gorm.Expr("score + ?", scoreDelta),
			"vote_count": gorm.Expr("vote_count + ?", voteDelta),
			"updated_at": time.Now().UTC(),
		})
	if update.Error != nil {
		return r.logError("judging_repo_apply_failed", update.Error,
			"contest_id", strings.TrimSpace(contestID),
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	if update.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&entryScoreModel{}).
			Where("id = ?", strings.TrimSpace(entryID)).
			Count(&exists).Error; err != nil {
			return r.logError("judging_repo_apply_recheck_failed", err,
				"entry_id", strings.TrimSpace(entryID),
			)
		}
		if exists == 0 {
			return domainerrors.ErrEntryNotFound
		}
		return domainerrors.ErrContestNotJudgeable
	}
	return nil
}

func (r *Repository) GetEntryScore(ctx context.Context, entryID string) (entities.EntryScore, error) {
	var row entryScoreModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(entryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EntryScore{}, domainerrors.ErrEntryNotFound
		}
		return entities.EntryScore{}, r.logError("judging_repo_score_get_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListEntryScoresByContest(ctx context.Context, contestID string) ([]entities.EntryScore, error) {
	var rows []entryScoreModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("submitted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_score_list_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	items := make([]entities.EntryScore, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) RecordJudgment(ctx context.Context, judgment entities.Judgment) error {
	row := judgmentModel{
		ID:         strings.TrimSpace(judgment.JudgmentID),
		ContestID:  strings.TrimSpace(judgment.ContestID),
		EntryID:    strings.TrimSpace(judgment.EntryID),
		JudgeID:    strings.TrimSpace(judgment.JudgeID),
		ScoreDelta: judgment.ScoreDelta,
		VoteDelta:  judgment.VoteDelta,
		OccurredAt: judgment.OccurredAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("judging_repo_record_failed", err,
			"judgment_id", row.ID,
			"entry_id", row.EntryID,
		)
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, seenAt time.Time) (bool, error) {
	row := dedupModel{
		EventID: strings.TrimSpace(eventID),
		SeenAt:  seenAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("judging_repo_dedup_failed", create.Error, "event_id", row.EventID)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-core/judging-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("judging repository operation failed", fields...)
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

type contestStatusModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Status string `gorm:"column:status"`
}

func (contestStatusModel) TableName() string {
	return "contests"
}

type entryScoreModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ContestID     string    `gorm:"column:contest_id"`
	UserID        string    `gorm:"column:user_id"`
	Score         float64   `gorm:"column:score"`
	VoteCount     int       `gorm:"column:vote_count"`
	SubmittedAt   time.Time `gorm:"column:submitted_at"`
	FinalPosition *int      `gorm:"column:final_position"`
}

func (entryScoreModel) TableName() string {
	return "entries"
}

func (m entryScoreModel) toEntity() entities.EntryScore {
	return entities.EntryScore{
		EntryID:     m.ID,
		ContestID:   m.ContestID,
		UserID:      m.UserID,
		Score:       m.Score,
		VoteCount:   m.VoteCount,
		SubmittedAt: m.SubmittedAt.UTC(),
		Frozen:      m.FinalPosition != nil,
	}
}

type judgmentModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ContestID  string    `gorm:"column:contest_id"`
	EntryID    string    `gorm:"column:entry_id"`
	JudgeID    string    `gorm:"column:judge_id"`
	ScoreDelta float64   `gorm:"column:score_delta"`
	VoteDelta  int       `gorm:"column:vote_delta"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (judgmentModel) TableName() string {
	return "judgments"
}

type dedupModel struct {
	EventID string    `gorm:"column:event_id;primaryKey"`
	SeenAt  time.Time `gorm:"column:seen_at"`
}

func (dedupModel) TableName() string {
	return "judging_event_dedup"
}
