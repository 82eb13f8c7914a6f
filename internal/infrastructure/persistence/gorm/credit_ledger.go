package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// CreditLedger moves credits with conditional UPDATE statements. The WHERE clause is the
// check, so two concurrent debits can never both pass against the same balance.
type CreditLedger struct {
	db *gorm.DB
}

// NewCreditLedger creates a new credit ledger
func NewCreditLedger(db *gorm.DB) outbound.CreditLedger {
	return &CreditLedger{db: db}
}

// Debit subtracts cost and returns the new balance.
func (l *CreditLedger) Debit(ctx context.Context, userID int64, cost int) (int, error) {
	if cost < 0 {
		return 0, user.ErrNegativeCredits
	}
	db := conn(ctx, l.db)

	result := db.Model(&UserModel{}).
		Where("id = ? AND credits >= ?", userID, cost).
		Update("credits", gorm.Expr("credits - ?", cost))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := l.Balance(ctx, userID); err != nil {
			return 0, err
		}
		return 0, user.ErrInsufficientCredits
	}

	return l.Balance(ctx, userID)
}

// GrantDaily adds DailyBonusAmount when the bonus column is empty or older than the start
// of now's UTC day. It reports whether the grant happened.
func (l *CreditLedger) GrantDaily(ctx context.Context, userID int64, bonus user.Bonus, now time.Time) (bool, error) {
	column := bonusColumn(bonus)
	now = now.UTC()

	result := conn(ctx, l.db).Model(&UserModel{}).
		Where("id = ?", userID).
		Where("("+column+" IS NULL OR "+column+" < ?)", user.StartOfDay(now)).
		Updates(map[string]interface{}{
			"credits": gorm.Expr("credits + ?", user.DailyBonusAmount),
			column:    now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Balance returns the user's current credits.
func (l *CreditLedger) Balance(ctx context.Context, userID int64) (int, error) {
	var row struct{ Credits int }
	result := conn(ctx, l.db).Model(&UserModel{}).
		Select("credits").
		Where("id = ?", userID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, user.ErrNotFound
	}
	return row.Credits, nil
}

func bonusColumn(b user.Bonus) string {
	if b == user.BonusLogin {
		return "last_login_credit"
	}
	return "last_recipe_saved_credit"
}
