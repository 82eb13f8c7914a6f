package user

import "time"

// Bonus identifies a daily credit grant. Each kind is stamped in its own column.
type Bonus string

const (
	BonusRecipeSaved Bonus = "recipe_saved"
	BonusLogin       Bonus = "login"
)

// DailyBonusAmount is the number of credits granted by one bonus.
const DailyBonusAmount = 1

// StartOfDay returns midnight UTC of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BonusDue reports whether a bonus last stamped at last may be granted at now.
// It is due when never granted or granted on an earlier UTC calendar day.
func BonusDue(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return last.UTC().Before(StartOfDay(now))
}

// LastGrant returns the stamp for the given bonus kind.
func (u *User) LastGrant(b Bonus) *time.Time {
	switch b {
	case BonusLogin:
		return u.LastLoginCredit
	default:
		return u.LastRecipeSavedCredit
	}
}
