package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const msgMissingPortions = "Parametern portions saknas"

// AIAPIHandlers serves the generative endpoints and the image classifier.
type AIAPIHandlers struct {
	ai     inbound.AIService
	decode decoder
	logger *zap.Logger
}

// NewAIAPIHandlers creates a new AI API handlers instance
func NewAIAPIHandlers(ai inbound.AIService, validator *security.ValidationService, maxUpload int64, logger *zap.Logger) *AIAPIHandlers {
	return &AIAPIHandlers{
		ai:     ai,
		decode: newDecoder(validator, maxUpload),
		logger: logger,
	}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Context string `json:"context"`
	Message string `json:"message" validate:"required,not_blank,max=4000"`
}

// ShoppingList handles GET /shopping-list/{id}?portions=
func (h *AIAPIHandlers) ShoppingList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	portions, err := queryInt(r, "portions")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if portions == nil || *portions < 1 {
		h.fail(w, r, apperrors.NewValidationError(msgMissingPortions))
		return
	}
	h.respond(w, r, "recipes", func(ctx context.Context) (json.RawMessage, error) {
		return h.ai.ShoppingList(ctx, id, *portions)
	})
}

// SuggestSimilar handles GET /suggest-recipe/{id}
func (h *AIAPIHandlers) SuggestSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, "recipes", func(ctx context.Context) (json.RawMessage, error) {
		return h.ai.SuggestSimilar(ctx, id)
	})
}

// ChangeIngredients handles GET /change-ingredients/{id}?ingredients=
func (h *AIAPIHandlers) ChangeIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ingredients := r.URL.Query().Get("ingredients")
	h.respond(w, r, "recipes", func(ctx context.Context) (json.RawMessage, error) {
		return h.ai.ChangeIngredients(ctx, id, ingredients)
	})
}

// AddIngredients handles GET /add-ingredients/{id}?ingredients=
func (h *AIAPIHandlers) AddIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ingredients := r.URL.Query().Get("ingredients")
	h.respond(w, r, "recipes", func(ctx context.Context) (json.RawMessage, error) {
		return h.ai.AddIngredients(ctx, id, ingredients)
	})
}

// SuggestFromImage handles POST /suggest_recipe_from_image
func (h *AIAPIHandlers) SuggestFromImage(w http.ResponseWriter, r *http.Request) {
	h.imageRequest(w, r, "recipes", h.ai.SuggestFromIngredientsImage)
}

// SuggestFromPlateImage handles POST /suggest-recipe-from-plateimage
func (h *AIAPIHandlers) SuggestFromPlateImage(w http.ResponseWriter, r *http.Request) {
	h.imageRequest(w, r, "recipes", h.ai.SuggestFromPlateImage)
}

// SaveBoughtItems handles POST /save-bought-items
func (h *AIAPIHandlers) SaveBoughtItems(w http.ResponseWriter, r *http.Request) {
	h.imageRequest(w, r, "items", h.ai.BoughtItemsFromImage)
}

// Chat handles POST /chat
func (h *AIAPIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ChatRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	answer, err := h.ai.Chat(r.Context(), caller, req.Context, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"response": answer})
}

// ClassifyImage handles POST /classify-image and returns the verdict without rejecting.
func (h *AIAPIHandlers) ClassifyImage(w http.ResponseWriter, r *http.Request) {
	file, err := h.decode.Image(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	verdict, err := h.ai.Moderate(r.Context(), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, verdict)
}

type imageCall func(ctx context.Context, caller inbound.Caller, file inbound.ImageUpload) (json.RawMessage, error)

func (h *AIAPIHandlers) imageRequest(w http.ResponseWriter, r *http.Request, key string, call imageCall) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	file, err := h.decode.Image(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, key, func(ctx context.Context) (json.RawMessage, error) {
		return call(ctx, caller, file)
	})
}

// respond wraps the bridge result as {key: result}.
func (h *AIAPIHandlers) respond(w http.ResponseWriter, r *http.Request, key string, call func(ctx context.Context) (json.RawMessage, error)) {
	result, err := call(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(result) == 0 {
		result = json.RawMessage("[]")
	}
	render.JSON(w, http.StatusOK, map[string]json.RawMessage{key: result})
}

func (h *AIAPIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, h.logger, err)
}
