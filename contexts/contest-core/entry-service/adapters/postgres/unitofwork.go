package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"
	"crucible/contexts/contest-core/entry-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork runs the submission callback inside one database transaction.
// Execute takes a FOR UPDATE lock on the contest row first, so concurrent
// submissions to the same contest serialize and the counts the validator
// reads cannot go stale before commit.
type UnitOfWork struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewUnitOfWork(db *gorm.DB, logger *slog.Logger) *UnitOfWork {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{
		db:     db,
		logger: logger,
	}
}

func (u *UnitOfWork) Execute(ctx context.Context, contestID string, fn func(tx ports.TxContext) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked contestProjectionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(contestID)).
			First(&locked).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrContestNotFound
			}
			u.logger.Error("contest row lock failed",
				"event", "entry_uow_lock_failed",
				"module", "contest-core/entry-service",
				"layer", "adapter",
				"contest_id", strings.TrimSpace(contestID),
				"error", err.Error(),
			)
			return err
		}
		return fn(&gormTxContext{
			tx:     tx,
			logger: u.logger,
			locked: locked.toProjection(),
		})
	})
}

type gormTxContext struct {
	tx     *gorm.DB
	logger *slog.Logger
	locked ports.ContestProjection
}

func (t *gormTxContext) Entries() ports.EntryRepository {
	return NewRepository(t.tx, t.logger)
}

func (t *gormTxContext) Contests() ports.ContestReader {
	return txContestReader{locked: t.locked, tx: t.tx}
}

func (t *gormTxContext) Ledger() ports.Ledger {
	return NewLedger(t.tx, t.logger)
}

func (t *gormTxContext) Outbox() ports.OutboxWriter {
	return NewRepository(t.tx, t.logger)
}

// txContestReader serves the already-locked row for the contest the scope
// was opened on and falls back to the table for any other id.
type txContestReader struct {
	locked ports.ContestProjection
	tx     *gorm.DB
}

func (r txContestReader) GetContest(ctx context.Context, contestID string) (ports.ContestProjection, error) {
	if strings.TrimSpace(contestID) == r.locked.ContestID {
		return r.locked, nil
	}
	var row contestProjectionModel
	err := r.tx.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ContestProjection{}, domainerrors.ErrContestNotFound
		}
		return ports.ContestProjection{}, err
	}
	return row.toProjection(), nil
}
