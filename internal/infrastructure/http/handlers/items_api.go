package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/items"
	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
)

// ItemHandlers serves the shopping list.
type ItemHandlers struct {
	items  inbound.ItemService
	decode decoder
	logger *zap.Logger
}

func NewItemHandlers(items inbound.ItemService, validator *security.ValidationService, logger *zap.Logger) *ItemHandlers {
	return &ItemHandlers{items: items, decode: newDecoder(validator, 0), logger: logger}
}

type itemRequest struct {
	Item string `json:"item" validate:"required,not_blank,max=255"`
	Size string `json:"size" validate:"max=100"`
}

type itemUpdateRequest struct {
	Item *string `json:"item" validate:"omitempty,max=255"`
	Size *string `json:"size" validate:"omitempty,max=100"`
}

// Create handles POST /saved-items
func (h *ItemHandlers) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req itemRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.items.Create(r.Context(), caller, &items.SavedItem{Item: req.Item, Size: req.Size})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, created)
}

// List handles GET /saved-items
func (h *ItemHandlers) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.items.List(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// Update handles PUT /saved-items/{id}
func (h *ItemHandlers) Update(w http.ResponseWriter, r *http.Request) {
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
	var req itemUpdateRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.items.Update(r.Context(), caller, id, items.Update{Item: req.Item, Size: req.Size})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /saved-items/{id}
func (h *ItemHandlers) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.items.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, true)
}

func (h *ItemHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, h.logger, err)
}
