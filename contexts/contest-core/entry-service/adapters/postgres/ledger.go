package postgresadapter

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "crucible/contexts/contest-core/entry-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletModel struct {
	UserID  string `gorm:"column:user_id;primaryKey"`
	Balance int64  `gorm:"column:balance"`
}

func (walletModel) TableName() string {
	return "wallet_accounts"
}

// Ledger moves virtual currency on wallet_accounts. Both operations are
// single guarded statements, so a debit can never push a balance negative
// even under concurrent writers.
type Ledger struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLedger(db *gorm.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		db:     db,
		logger: logger,
	}
}

func (l *Ledger) Debit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	update := l.db.WithContext(ctx).Model(&walletModel{}).
		Where("user_id = ? AND balance >= ?", strings.TrimSpace(userID), amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if update.Error != nil {
		return l.logError("wallet_debit_failed", update.Error, userID, amount)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrInsufficientBalance
	}
	return nil
}

func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return domainerrors.ErrInvalidSubmissionInput
	}
	row := walletModel{
		UserID:  strings.TrimSpace(userID),
		Balance: amount,
	}
	create := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance": gorm.Expr("wallet_accounts.balance + ?", amount),
		}),
	}).Create(&row)
	if create.Error != nil {
		return l.logError("wallet_credit_failed", create.Error, userID, amount)
	}
	return nil
}

func (l *Ledger) logError(event string, err error, userID string, amount int64) error {
	l.logger.Error("wallet operation failed",
		"event", event,
		"module", "contest-core/entry-service",
		"layer", "adapter",
		"user_id", strings.TrimSpace(userID),
		"amount", amount,
		"error", err.Error(),
	)
	return err
}
