// Package user provides the application layer for user management
package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

// Messages shown to clients.
const (
	MsgPasswordResetRequested = "Ett mail har skickats med en länk för att återställa ditt lösenord. " +
		"Kontrollera att du angett rätt e-postadress, och att du har ett Foodisave konto om du inte mottagit något mail."
	MsgPasswordChanged  = "Vi har nu bytt ditt lösenord"
	MsgAccountActivated = "Ditt konto har nu aktiverats"

	msgEmailTaken        = "E-postadressen är redan registrerad"
	msgInvalidEmail      = "Ogiltig e-postadress"
	msgNameRequired      = "För- och efternamn måste anges"
	msgPasswordTooShort  = "Lösenordet måste vara minst %d tecken långt"
	msgBadCredentials    = "Felaktig e-postadress eller lösenord"
	msgInactive          = "Kontot är inte aktiverat. Kontrollera din e-post."
	msgSessionInvalid    = "Ogiltig eller utgången inloggning"
	msgUserMissing       = "Användaren hittades inte"
	msgNoUsers           = "Inga användare hittades"
	msgWrongPassword     = "Nuvarande lösenord är felaktigt"
	msgInvalidResetToken = "Ogiltig eller utgången länk"
	msgInvalidActivation = "Ogiltig eller utgången aktiveringslänk"
	msgNegativeCredits   = "Credits kan inte vara negativa"
	msgAdminOnly         = "Endast administratörer har åtkomst"
)

const (
	secureTokenEntropy    = 32
	emailDispatchDeadline = 30 * time.Second
)

// Authenticator issues and verifies signed access tokens.
type Authenticator interface {
	GenerateAccessToken(userID int64, email string, isAdmin bool) (*security.IssuedToken, error)
	ValidateToken(token string) (*security.Claims, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) (bool, error)
}

// UserService implements user management use cases
type UserService struct {
	users   outbound.UserRepository
	tokens  outbound.TokenRepository
	ledger  outbound.CreditLedger
	tx      outbound.Transactor
	auth    Authenticator
	hasher  PasswordHasher
	email   outbound.EmailService
	metrics outbound.BusinessMetrics
	logger  *zap.Logger

	initialCredits int
	minPassword    int
	resetTTL       time.Duration
	activationTTL  time.Duration

	now func() time.Time
	// dispatch runs mail delivery off the request path.
	dispatch func(fn func())

	decoyOnce sync.Once
	decoyHash string
}

// Option configures a UserService.
type Option func(*UserService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *UserService) { s.now = now }
}

// WithDispatcher replaces the goroutine used for mail delivery.
func WithDispatcher(dispatch func(fn func())) Option {
	return func(s *UserService) { s.dispatch = dispatch }
}

// NewUserService creates a new user service
func NewUserService(
	users outbound.UserRepository,
	tokens outbound.TokenRepository,
	ledger outbound.CreditLedger,
	tx outbound.Transactor,
	auth Authenticator,
	hasher PasswordHasher,
	email outbound.EmailService,
	authCfg config.AuthConfig,
	credits config.CreditsConfig,
	metrics outbound.BusinessMetrics,
	logger *zap.Logger,
	opts ...Option,
) *UserService {
	minPassword := authCfg.MinPasswordLength
	if minPassword < 1 {
		minPassword = 8
	}
	s := &UserService{
		users:          users,
		tokens:         tokens,
		ledger:         ledger,
		tx:             tx,
		auth:           auth,
		hasher:         hasher,
		email:          email,
		metrics:        metrics,
		logger:         logger.Named("user-service"),
		initialCredits: credits.Initial,
		minPassword:    minPassword,
		resetTTL:       authCfg.PasswordResetTTL,
		activationTTL:  authCfg.ActivationTTL,
		now:            time.Now,
		dispatch:       func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ inbound.UserService = (*UserService)(nil)

// Register creates an inactive account with the starting balance and mails an activation link.
func (s *UserService) Register(ctx context.Context, reg inbound.Registration) (*user.User, error) {
	if err := s.checkPassword(reg.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(reg.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(err)
	}

	u, err := user.NewUser(reg.Email, reg.FirstName, reg.LastName, hash, s.initialCredits)
	if err != nil {
		return nil, domainError(err)
	}

	var activation string
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return domainError(err)
		}
		activation, err = s.issueToken(ctx, user.TokenActivation, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.UserRegistered()
	s.logger.Info("User registered", zap.Int64("user_id", u.ID))

	s.sendAsync(ctx, u.ID, "activation", func(ctx context.Context) error {
		return s.email.SendActivation(ctx, u.Email, activation)
	})
	return u, nil
}

// compareDecoy does the bcrypt work of a real check so an unknown email takes as long as
// a wrong password.
func (s *UserService) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.HashPassword("decoy password that matches nothing")
		if err != nil {
			s.logger.Warn("Failed to prepare decoy hash", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash != "" {
		_, _ = s.hasher.VerifyPassword(s.decoyHash, password)
	}
}

// Login checks the credentials, grants the daily login bonus and records a new session.
func (s *UserService) Login(ctx context.Context, email, password string) (*inbound.AccessToken, error) {
	u, err := s.users.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.compareDecoy(password)
			return nil, apperrors.NewUnauthorizedError(msgBadCredentials)
		}
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	ok, err := s.hasher.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		s.logger.Error("Stored password hash unreadable", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, apperrors.NewUnauthorizedError(msgBadCredentials)
	}
	if !ok {
		s.logger.Warn("Invalid password attempt", zap.Int64("user_id", u.ID))
		return nil, apperrors.NewUnauthorizedError(msgBadCredentials)
	}
	if !u.IsActive {
		return nil, apperrors.NewForbiddenError(msgInactive)
	}

	issued, err := s.auth.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(err)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		granted, err := s.ledger.GrantDaily(ctx, u.ID, user.BonusLogin, s.now())
		if err != nil {
			return apperrors.NewDatabaseError("grant login bonus", err)
		}
		if granted {
			s.metrics.DailyBonus(string(user.BonusLogin))
		}
		session := &user.Token{Kind: user.TokenSession, Value: issued.SessionID, UserID: u.ID}
		if err := s.tokens.Create(ctx, session); err != nil {
			return apperrors.NewDatabaseError("store session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", u.ID))
	return &inbound.AccessToken{AccessToken: issued.Token, TokenType: "bearer"}, nil
}

// Logout revokes the caller's session.
func (s *UserService) Logout(ctx context.Context, caller inbound.Caller) error {
	if err := s.tokens.Delete(ctx, user.TokenSession, caller.SessionID); err != nil {
		if errors.Is(err, user.ErrTokenInvalid) {
			return apperrors.NewUnauthorizedError(msgSessionInvalid)
		}
		return apperrors.NewDatabaseError("delete session", err)
	}
	return nil
}

// Authenticate verifies the signature and expiry and then that the session was not revoked.
// The admin flag is read from the account, not the token, so demotions apply at once.
func (s *UserService) Authenticate(ctx context.Context, token string) (inbound.Caller, error) {
	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		return inbound.Caller{}, apperrors.NewUnauthorizedError(msgSessionInvalid).WithCause(err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return inbound.Caller{}, apperrors.NewUnauthorizedError(msgSessionInvalid).WithCause(err)
	}

	session, err := s.tokens.Find(ctx, user.TokenSession, claims.ID)
	if err != nil {
		if errors.Is(err, user.ErrTokenInvalid) {
			return inbound.Caller{}, apperrors.NewUnauthorizedError(msgSessionInvalid)
		}
		return inbound.Caller{}, apperrors.NewDatabaseError("find session", err)
	}
	if session.UserID != userID {
		return inbound.Caller{}, apperrors.NewUnauthorizedError(msgSessionInvalid)
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return inbound.Caller{}, apperrors.NewUnauthorizedError(msgSessionInvalid)
		}
		return inbound.Caller{}, apperrors.NewDatabaseError("find user", err)
	}
	return inbound.Caller{UserID: u.ID, IsAdmin: u.IsAdmin, SessionID: claims.ID}, nil
}

func (s *UserService) Me(ctx context.Context, caller inbound.Caller) (*user.User, error) {
	return s.find(ctx, caller.UserID)
}

// UpdateProfile changes the caller's name. Blank fields are ignored.
func (s *UserService) UpdateProfile(ctx context.Context, caller inbound.Caller, update user.ProfileUpdate) (*user.User, error) {
	u, err := s.find(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	update.Apply(u)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, domainError(err)
	}
	return u, nil
}

// ChangePassword requires the current password.
func (s *UserService) ChangePassword(ctx context.Context, caller inbound.Caller, current, next string) error {
	u, err := s.find(ctx, caller.UserID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.VerifyPassword(u.PasswordHash, current)
	if err != nil || !ok {
		return apperrors.NewBadRequestError(msgWrongPassword)
	}
	if err := s.checkPassword(next); err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, next)
}

// DeleteAccount removes the caller. Sessions, tokens and bookmarks cascade; authored content
// keeps its rows with the owner cleared.
func (s *UserService) DeleteAccount(ctx context.Context, caller inbound.Caller) error {
	if err := s.users.Delete(ctx, caller.UserID); err != nil {
		return domainError(err)
	}
	s.logger.Info("User deleted", zap.Int64("user_id", caller.UserID))
	return nil
}

func (s *UserService) List(ctx context.Context, caller inbound.Caller) ([]*user.User, error) {
	if !caller.IsAdmin {
		return nil, apperrors.NewForbiddenError(msgAdminOnly)
	}
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	if len(list) == 0 {
		return nil, apperrors.NewNotFoundError(msgNoUsers)
	}
	return list, nil
}

// AdminUpdate lets an administrator edit any account, including its balance.
func (s *UserService) AdminUpdate(ctx context.Context, caller inbound.Caller, id int64, update user.AdminUpdate) (*user.User, error) {
	if !caller.IsAdmin {
		return nil, apperrors.NewForbiddenError(msgAdminOnly)
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := update.Apply(u); err != nil {
		return nil, domainError(err)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, domainError(err)
	}
	s.logger.Info("User updated by admin",
		zap.Int64("user_id", id),
		zap.Int64("admin_id", caller.UserID),
	)
	return u, nil
}

// RequestPasswordReset mails a reset link when the address is known. The caller cannot tell
// the difference.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return apperrors.NewDatabaseError("find user", err)
	}

	token, err := s.issueToken(ctx, user.TokenPasswordReset, u.ID)
	if err != nil {
		return err
	}
	s.sendAsync(ctx, u.ID, "password_reset", func(ctx context.Context) error {
		return s.email.SendPasswordReset(ctx, u.Email, token)
	})
	return nil
}

// ConfirmPasswordReset redeems a reset token once and sets the new password.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.redeem(ctx, user.TokenPasswordReset, token, s.resetTTL, msgInvalidResetToken)
		if err != nil {
			return err
		}
		if err := s.checkPassword(newPassword); err != nil {
			return err
		}
		if err := s.setPassword(ctx, t.UserID, newPassword); err != nil {
			return err
		}
		s.logger.Info("Password reset", zap.Int64("user_id", t.UserID))
		return nil
	})
}

// ConfirmActivation redeems an activation token once and activates the account.
func (s *UserService) ConfirmActivation(ctx context.Context, token string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.redeem(ctx, user.TokenActivation, token, s.activationTTL, msgInvalidActivation)
		if err != nil {
			return err
		}
		if err := s.users.Activate(ctx, t.UserID); err != nil {
			return domainError(err)
		}
		s.logger.Info("Account activated", zap.Int64("user_id", t.UserID))
		return nil
	})
}

// redeem checks the token is known, unused and young enough, then marks it used. The mark is
// conditional so a concurrent second redemption fails.
func (s *UserService) redeem(ctx context.Context, kind user.TokenKind, value string, ttl time.Duration, msg string) (*user.Token, error) {
	t, err := s.tokens.Find(ctx, kind, value)
	if err != nil {
		if errors.Is(err, user.ErrTokenInvalid) {
			return nil, apperrors.NewBadRequestError(msg)
		}
		return nil, apperrors.NewDatabaseError("find token", err)
	}
	if !t.Usable(s.now(), ttl) {
		return nil, apperrors.NewBadRequestError(msg)
	}
	if err := s.tokens.MarkUsed(ctx, kind, value); err != nil {
		if errors.Is(err, user.ErrTokenInvalid) {
			return nil, apperrors.NewBadRequestError(msg)
		}
		return nil, apperrors.NewDatabaseError("mark token used", err)
	}
	return t, nil
}

func (s *UserService) issueToken(ctx context.Context, kind user.TokenKind, userID int64) (string, error) {
	value, err := security.GenerateSecureToken(secureTokenEntropy)
	if err != nil {
		return "", apperrors.NewInternalError("").WithCause(err)
	}
	if err := s.tokens.Create(ctx, &user.Token{Kind: kind, Value: value, UserID: userID}); err != nil {
		return "", apperrors.NewDatabaseError("store token", err)
	}
	return value, nil
}

func (s *UserService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return apperrors.NewInternalError("").WithCause(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return domainError(err)
	}
	return nil
}

func (s *UserService) checkPassword(password string) error {
	if len([]rune(password)) < s.minPassword {
		return apperrors.NewBadRequestError(fmt.Sprintf(msgPasswordTooShort, s.minPassword))
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domainError(err)
	}
	return u, nil
}

// sendAsync delivers mail after the request has been answered. Failures are logged only.
func (s *UserService) sendAsync(ctx context.Context, userID int64, template string, send func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(ctx, emailDispatchDeadline)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error("Failed to send email",
				zap.String("template", template),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	})
}

// domainError maps user domain sentinels to client errors.
func domainError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, user.ErrNotFound):
		return apperrors.NewNotFoundError(msgUserMissing)
	case errors.Is(err, user.ErrEmailTaken):
		return apperrors.NewConflictError(msgEmailTaken)
	case errors.Is(err, user.ErrInvalidEmail):
		return apperrors.NewBadRequestError(msgInvalidEmail)
	case errors.Is(err, user.ErrNameRequired):
		return apperrors.NewBadRequestError(msgNameRequired)
	case errors.Is(err, user.ErrNegativeCredits):
		return apperrors.NewBadRequestError(msgNegativeCredits)
	default:
		return apperrors.NewDatabaseError("update user", err)
	}
}
