// Package user defines accounts, their credit balance and the one-time tokens issued to them.
package user

import (
	"net/mail"
	"strings"
	"time"
)

// User is an account. Credits is never negative.
type User struct {
	ID                    int64      `json:"id"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 string     `json:"email"`
	IsAdmin               bool       `json:"is_admin"`
	IsActive              bool       `json:"is_active"`
	Credits               int        `json:"credits"`
	Level                 int        `json:"level"`
	PasswordHash          string     `json:"-"`
	LastCreditRefill      *time.Time `json:"last_credit_refill,omitempty"`
	LastLoginCredit       *time.Time `json:"last_login_credit,omitempty"`
	LastRecipeSavedCredit *time.Time `json:"last_recipe_saved_credit,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// NewUser builds an inactive account at level 1 with the given starting balance.
func NewUser(email, firstName, lastName, passwordHash string, credits int) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrNameRequired
	}
	if credits < 0 {
		return nil, ErrNegativeCredits
	}
	return &User{
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: passwordHash,
		Credits:      credits,
		Level:        1,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// FullName returns first and last name joined.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate is what a user may change about themselves.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// AdminUpdate is what an administrator may change about any account.
type AdminUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Credits   *int
	IsAdmin   *bool
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
}

// Apply copies the set fields onto u, validating email and balance.
func (a AdminUpdate) Apply(u *User) error {
	ProfileUpdate{FirstName: a.FirstName, LastName: a.LastName}.Apply(u)
	if a.Email != nil {
		email := NormalizeEmail(*a.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return ErrInvalidEmail
		}
		u.Email = email
	}
	if a.Credits != nil {
		if *a.Credits < 0 {
			return ErrNegativeCredits
		}
		u.Credits = *a.Credits
	}
	if a.IsAdmin != nil {
		u.IsAdmin = *a.IsAdmin
	}
	return nil
}
