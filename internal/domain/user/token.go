package user

import "time"

// TokenKind separates the three token tables.
type TokenKind string

const (
	TokenSession       TokenKind = "session"
	TokenPasswordReset TokenKind = "password_reset"
	TokenActivation    TokenKind = "activation"
)

// Token is a random secret bound to a user. Reset and activation tokens expire and are
// single use; session tokens live until logout or account deletion.
type Token struct {
	ID        int64
	Kind      TokenKind
	Value     string
	UserID    int64
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether t can still be redeemed at now given its lifetime.
func (t *Token) Usable(now time.Time, ttl time.Duration) bool {
	if t.Used {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return !t.CreatedAt.Before(now.Add(-ttl))
}
