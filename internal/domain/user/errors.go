package user

import "errors"

var (
	ErrNotFound            = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrNameRequired        = errors.New("first and last name are required")
	ErrNegativeCredits     = errors.New("credits must not be negative")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInactive            = errors.New("account is not activated")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrTokenInvalid        = errors.New("token invalid or expired")
)
