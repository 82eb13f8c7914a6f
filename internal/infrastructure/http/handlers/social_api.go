package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
)

const msgUnfollowed = "Du följer inte längre användaren"

// SocialHandlers serves comments, reviews, follows and messages.
type SocialHandlers struct {
	social inbound.SocialService
	decode decoder
	logger *zap.Logger
}

func NewSocialHandlers(social inbound.SocialService, validator *security.ValidationService, logger *zap.Logger) *SocialHandlers {
	return &SocialHandlers{social: social, decode: newDecoder(validator, 0), logger: logger}
}

// Length and blank checks on content happen in the service.
type contentRequest struct {
	Content string `json:"content"`
}

type messageRequest struct {
	ReceiverUserID int64  `json:"receiver_user_id" validate:"required,gt=0"`
	Content        string `json:"content"`
}

// Comment handles POST /user-recipe/{id}/comments
func (h *SocialHandlers) Comment(w http.ResponseWriter, r *http.Request) {
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
	var req contentRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.social.Comment(r.Context(), caller, id, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, c)
}

// Comments handles GET /user-recipe/{id}/comments
func (h *SocialHandlers) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.social.Comments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// Review handles POST /recipe/{id}/reviews
func (h *SocialHandlers) Review(w http.ResponseWriter, r *http.Request) {
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
	var req contentRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	review, err := h.social.Review(r.Context(), caller, id, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, review)
}

// Reviews handles GET /recipe/{id}/reviews
func (h *SocialHandlers) Reviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.social.Reviews(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// Follow handles POST /users/{id}/follow
func (h *SocialHandlers) Follow(w http.ResponseWriter, r *http.Request) {
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
	f, err := h.social.Follow(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, f)
}

// Unfollow handles DELETE /users/{id}/follow
func (h *SocialHandlers) Unfollow(w http.ResponseWriter, r *http.Request) {
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
	if err := h.social.Unfollow(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgUnfollowed)
}

// Followers handles GET /users/{id}/followers
func (h *SocialHandlers) Followers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.social.Followers(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// Following handles GET /users/{id}/following
func (h *SocialHandlers) Following(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.social.Following(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// SendMessage handles POST /messages
func (h *SocialHandlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req messageRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.social.SendMessage(r.Context(), caller, req.ReceiverUserID, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, m)
}

// Messages handles GET /messages
func (h *SocialHandlers) Messages(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.social.Messages(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

func (h *SocialHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, h.logger, err)
}
