package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"
	"crucible/contexts/contest-core/payout-engine/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork runs settlement inside one database transaction. Execute takes
// a FOR UPDATE lock on the contest row first, so finalization, cancellation,
// and late submissions for the same contest serialize.
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
		var locked contestModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(contestID)).
			First(&locked).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrContestNotFound
			}
			u.logger.Error("contest row lock failed",
				"event", "payout_uow_lock_failed",
				"module", "contest-core/payout-engine",
				"layer", "adapter",
				"contest_id", strings.TrimSpace(contestID),
				"error", err.Error(),
			)
			return err
		}
		return fn(&gormTxContext{tx: tx, logger: u.logger})
	})
}

type gormTxContext struct {
	tx     *gorm.DB
	logger *slog.Logger
}

func (t *gormTxContext) Contests() ports.ContestStore { return NewRepository(t.tx, t.logger) }
func (t *gormTxContext) Entries() ports.EntryStore    { return NewRepository(t.tx, t.logger) }
func (t *gormTxContext) Ledger() ports.Ledger         { return NewLedger(t.tx, t.logger) }
func (t *gormTxContext) Outbox() ports.OutboxWriter   { return NewRepository(t.tx, t.logger) }
