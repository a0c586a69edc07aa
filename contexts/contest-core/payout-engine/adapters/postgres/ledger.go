package postgresadapter

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "crucible/contexts/contest-core/payout-engine/domain/errors"

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

// Ledger credits prize and refund amounts on wallet_accounts.
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

func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return domainerrors.ErrInvalidPrizeInput
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
		l.logger.Error("wallet credit failed",
			"event", "payout_wallet_credit_failed",
			"module", "contest-core/payout-engine",
			"layer", "adapter",
			"user_id", strings.TrimSpace(userID),
			"amount", amount,
			"error", create.Error.Error(),
		)
		return create.Error
	}
	return nil
}
