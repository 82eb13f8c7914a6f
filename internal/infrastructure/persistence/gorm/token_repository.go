package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// TokenRepository keeps each token kind in its own table.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) outbound.TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores t and writes back its id and creation time.
func (r *TokenRepository) Create(ctx context.Context, t *user.Token) error {
	db := conn(ctx, r.db)
	switch t.Kind {
	case user.TokenSession:
		m := &TokenModel{Token: t.Value, UserID: t.UserID}
		if err := db.Create(m).Error; err != nil {
			return err
		}
		t.ID, t.CreatedAt = m.ID, m.CreatedAt
	case user.TokenPasswordReset:
		m := &PasswordResetTokenModel{Token: t.Value, UserID: t.UserID, Used: t.Used}
		if err := db.Create(m).Error; err != nil {
			return err
		}
		t.ID, t.CreatedAt = m.ID, m.Created
	case user.TokenActivation:
		m := &ActivationTokenModel{Token: t.Value, UserID: t.UserID, Used: t.Used}
		if err := db.Create(m).Error; err != nil {
			return err
		}
		t.ID, t.CreatedAt = m.ID, m.Created
	default:
		return fmt.Errorf("unknown token kind %q", t.Kind)
	}
	return nil
}

// Find looks a token up by value. Missing tokens are user.ErrTokenInvalid.
func (r *TokenRepository) Find(ctx context.Context, kind user.TokenKind, value string) (*user.Token, error) {
	db := conn(ctx, r.db)
	var (
		t   *user.Token
		err error
	)
	switch kind {
	case user.TokenSession:
		var m TokenModel
		if err = db.First(&m, "token = ?", value).Error; err == nil {
			t = &user.Token{ID: m.ID, Kind: kind, Value: m.Token, UserID: m.UserID, CreatedAt: m.CreatedAt}
		}
	case user.TokenPasswordReset:
		var m PasswordResetTokenModel
		if err = db.First(&m, "token = ?", value).Error; err == nil {
			t = &user.Token{ID: m.ID, Kind: kind, Value: m.Token, UserID: m.UserID, Used: m.Used, CreatedAt: m.Created}
		}
	case user.TokenActivation:
		var m ActivationTokenModel
		if err = db.First(&m, "token = ?", value).Error; err == nil {
			t = &user.Token{ID: m.ID, Kind: kind, Value: m.Token, UserID: m.UserID, Used: m.Used, CreatedAt: m.Created}
		}
	default:
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrTokenInvalid
	}
	return t, err
}

// MarkUsed flags a reset or activation token as redeemed. It fails when the token was
// already used, so only one redemption wins.
func (r *TokenRepository) MarkUsed(ctx context.Context, kind user.TokenKind, value string) error {
	model, err := singleUseModel(kind)
	if err != nil {
		return err
	}
	result := conn(ctx, r.db).Model(model).
		Where("token = ? AND used = ?", value, false).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrTokenInvalid
	}
	return nil
}

// Delete removes a token.
func (r *TokenRepository) Delete(ctx context.Context, kind user.TokenKind, value string) error {
	var model interface{}
	switch kind {
	case user.TokenSession:
		model = &TokenModel{}
	default:
		m, err := singleUseModel(kind)
		if err != nil {
			return err
		}
		model = m
	}
	result := conn(ctx, r.db).Where("token = ?", value).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrTokenInvalid
	}
	return nil
}

func singleUseModel(kind user.TokenKind) (interface{}, error) {
	switch kind {
	case user.TokenPasswordReset:
		return &PasswordResetTokenModel{}, nil
	case user.TokenActivation:
		return &ActivationTokenModel{}, nil
	}
	return nil, fmt.Errorf("token kind %q is not single use", kind)
}
