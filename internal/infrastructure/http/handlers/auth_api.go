package handlers

import (
	"net/http"

	"go.uber.org/zap"

	userapp "github.com/foodisave/backend/internal/application/user"
	"github.com/foodisave/backend/internal/domain/user"
	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgLoggedOut      = "Du har loggats ut"
	msgAccountDeleted = "Kontot har raderats"
	msgMissingLogin   = "Användarnamn och lösenord måste anges"
)

// AuthAPIHandlers serves accounts, sessions and the token flows
type AuthAPIHandlers struct {
	users  inbound.UserService
	decode decoder
	logger *zap.Logger
}

// NewAuthAPIHandlers creates a new authentication API handlers instance
func NewAuthAPIHandlers(users inbound.UserService, validator *security.ValidationService, logger *zap.Logger) *AuthAPIHandlers {
	return &AuthAPIHandlers{
		users:  users,
		decode: newDecoder(validator, 0),
		logger: logger,
	}
}

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,not_blank,max=100"`
	LastName  string `json:"last_name" validate:"required,not_blank,max=100"`
	Password  string `json:"password" validate:"required"`
}

// ProfileRequest is the body of PUT /profile.
type ProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// AdminProfileRequest is the body of PUT /admin/profile/{id}.
type AdminProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Credits   *int    `json:"credits" validate:"omitempty,gte=0"`
	IsAdmin   *bool   `json:"is_admin"`
}

// ChangePasswordRequest is the body of PUT /change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type activationRequest struct {
	Token string `json:"token" validate:"required"`
}

// Register handles POST /user
func (h *AuthAPIHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.users.Register(r.Context(), inbound.Registration{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, created)
}

// Login handles POST /auth/token with an OAuth2 password form.
func (h *AuthAPIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperrors.NewBadRequestError(msgInvalidForm))
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		h.fail(w, r, apperrors.NewValidationError(msgMissingLogin))
		return
	}
	token, err := h.users.Login(r.Context(), username, password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, http.StatusOK, token)
}

// Logout handles POST /auth/logout
func (h *AuthAPIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.Logout(r.Context(), caller); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgLoggedOut)
}

// Me handles GET /me
func (h *AuthAPIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	me, err := h.users.Me(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, me)
}

// UpdateProfile handles PUT /profile
func (h *AuthAPIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ProfileRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.users.UpdateProfile(r.Context(), caller, user.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, updated)
}

// ChangePassword handles PUT /change-password
func (h *AuthAPIHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ChangePasswordRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, userapp.MsgPasswordChanged)
}

// DeleteAccount handles DELETE /user
func (h *AuthAPIHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.DeleteAccount(r.Context(), caller); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgAccountDeleted)
}

// ListUsers handles GET /user (administrators only)
func (h *AuthAPIHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.users.List(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// AdminUpdate handles PUT /admin/profile/{id}
func (h *AuthAPIHandlers) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req AdminProfileRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.users.AdminUpdate(r.Context(), caller, id, user.AdminUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Credits:   req.Credits,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, updated)
}

// RequestPasswordReset handles POST /auth/password-reset/request. The answer is the same
// whether or not the address belongs to an account.
func (h *AuthAPIHandlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, userapp.MsgPasswordResetRequested)
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm
func (h *AuthAPIHandlers) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, userapp.MsgPasswordChanged)
}

// ConfirmActivation handles POST /auth/activate/confirm
func (h *AuthAPIHandlers) ConfirmActivation(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.ConfirmActivation(r.Context(), req.Token); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, userapp.MsgAccountActivated)
}

func (h *AuthAPIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, h.logger, err)
}
