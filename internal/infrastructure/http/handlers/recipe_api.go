package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/infrastructure/http/render"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgBookmarkRemoved    = "Receptet har tagits bort från dina sparade recept"
	msgUserRecipeDeleted  = "Receptet har raderats"
	msgMissingSearchQuery = "Parametern query saknas"
)

// RecipeHandlers serves the catalog, user recipes, bookmarks and recipe images.
type RecipeHandlers struct {
	recipes     inbound.RecipeService
	userRecipes inbound.UserRecipeService
	decode      decoder
	logger      *zap.Logger
}

// NewRecipeHandlers creates the recipe handlers
func NewRecipeHandlers(
	recipes inbound.RecipeService,
	userRecipes inbound.UserRecipeService,
	validator *security.ValidationService,
	maxUpload int64,
	logger *zap.Logger,
) *RecipeHandlers {
	return &RecipeHandlers{
		recipes:     recipes,
		userRecipes: userRecipes,
		decode:      newDecoder(validator, maxUpload),
		logger:      logger,
	}
}

type recipeRef struct {
	RecipeID int64 `json:"recipe_id" validate:"required,gt=0"`
}

type userRecipeRef struct {
	UserRecipeID int64 `json:"user_recipe_id" validate:"required,gt=0"`
}

type savedResponse struct {
	IsSaved bool `json:"isSaved"`
}

// UserRecipeRequest is the body of POST /user/recipe and POST /ai/recipe.
type UserRecipeRequest struct {
	Name          string   `json:"name" validate:"required,not_blank,max=255"`
	Descriptions  string   `json:"descriptions"`
	Ingredients   string   `json:"ingredients" validate:"ingredient_list"`
	Instructions  string   `json:"instructions"`
	Category      *string  `json:"category"`
	CookTime      *string  `json:"cook_time"`
	Calories      *float64 `json:"calories" validate:"omitempty,gte=0"`
	Protein       *float64 `json:"protein" validate:"omitempty,gte=0"`
	Carbohydrates *float64 `json:"carbohydrates" validate:"omitempty,gte=0"`
	Fat           *float64 `json:"fat" validate:"omitempty,gte=0"`
	Servings      int      `json:"servings" validate:"gte=0,lte=100"`
}

func (req UserRecipeRequest) toDomain(isAI bool) *recipe.UserRecipe {
	return &recipe.UserRecipe{
		Name:          req.Name,
		Descriptions:  req.Descriptions,
		Ingredients:   req.Ingredients,
		Instructions:  req.Instructions,
		Category:      req.Category,
		CookTime:      req.CookTime,
		Calories:      req.Calories,
		Protein:       req.Protein,
		Carbohydrates: req.Carbohydrates,
		Fat:           req.Fat,
		Servings:      req.Servings,
		IsAI:          isAI,
	}
}

// Search handles GET /search/recipe
func (h *RecipeHandlers) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if !values.Has("query") {
		h.fail(w, r, apperrors.NewValidationError(msgMissingSearchQuery))
		return
	}
	q := recipe.SearchQuery{
		Query:       values.Get("query"),
		Ingredients: values.Get("ingredients"),
	}

	var err error
	if q.MaxCarbohydrates, err = queryInt(r, "carbohydrates"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.MaxCalories, err = queryInt(r, "calories"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.MinProtein, err = queryInt(r, "protein"); err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if page != nil {
		q.Page = *page
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if size != nil {
		if *size == 0 {
			h.fail(w, r, apperrors.NewValidationError(recipe.ErrInvalidPageSize.Error()))
			return
		}
		q.PageSize = *size
	}

	results, err := h.recipes.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, results)
}

// Random handles GET /random/recipe
func (h *RecipeHandlers) Random(w http.ResponseWriter, r *http.Request) {
	results, err := h.recipes.Random(r.Context(), r.URL.Query().Get("recipe_type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, results)
}

// Get handles GET /recipe/{id}
func (h *RecipeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, rec)
}

// Save handles POST /recipe/saved
func (h *RecipeHandlers) Save(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.recipeRef(w, r)
	if !ok {
		return
	}
	if err := h.recipes.Save(r.Context(), caller, req.RecipeID); err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, map[string]int64{"user_id": caller.UserID, "recipe_id": req.RecipeID})
}

// Unsave handles DELETE /recipe/saved
func (h *RecipeHandlers) Unsave(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.recipeRef(w, r)
	if !ok {
		return
	}
	if err := h.recipes.Unsave(r.Context(), caller, req.RecipeID); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgBookmarkRemoved)
}

// CheckSaved handles POST /recipe/saved/check
func (h *RecipeHandlers) CheckSaved(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.recipeRef(w, r)
	if !ok {
		return
	}
	saved, err := h.recipes.IsSaved(r.Context(), caller, req.RecipeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, savedResponse{IsSaved: saved})
}

// ListSaved handles GET /saved/recipe
func (h *RecipeHandlers) ListSaved(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.recipes.ListSaved(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, saved)
}

// CreateUserRecipe handles POST /user/recipe
func (h *RecipeHandlers) CreateUserRecipe(w http.ResponseWriter, r *http.Request) {
	h.createUserRecipe(w, r, false)
}

// CreateAIRecipe handles POST /ai/recipe
func (h *RecipeHandlers) CreateAIRecipe(w http.ResponseWriter, r *http.Request) {
	h.createUserRecipe(w, r, true)
}

func (h *RecipeHandlers) createUserRecipe(w http.ResponseWriter, r *http.Request, isAI bool) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UserRecipeRequest
	if err := h.decode.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.userRecipes.Create(r.Context(), caller, req.toDomain(isAI))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, created)
}

// ListUserRecipes handles GET /user/recipe/{user_id}
func (h *RecipeHandlers) ListUserRecipes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.userRecipes.ListByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, list)
}

// UpdateUserRecipe handles PATCH /user/recipe/update/{id}
func (h *RecipeHandlers) UpdateUserRecipe(w http.ResponseWriter, r *http.Request) {
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
	var patch recipe.UserRecipePatch
	if err := h.decode.JSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.userRecipes.Update(r.Context(), caller, id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, updated)
}

// DeleteUserRecipe handles DELETE /user/recipe/delete/{id}
func (h *RecipeHandlers) DeleteUserRecipe(w http.ResponseWriter, r *http.Request) {
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
	if err := h.userRecipes.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgUserRecipeDeleted)
}

// SaveUserRecipe handles POST /user-recipe/saved
func (h *RecipeHandlers) SaveUserRecipe(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.userRecipeRef(w, r)
	if !ok {
		return
	}
	if err := h.userRecipes.Save(r.Context(), caller, req.UserRecipeID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnsaveUserRecipe handles DELETE /user-recipe/saved
func (h *RecipeHandlers) UnsaveUserRecipe(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.userRecipeRef(w, r)
	if !ok {
		return
	}
	if err := h.userRecipes.Unsave(r.Context(), caller, req.UserRecipeID); err != nil {
		h.fail(w, r, err)
		return
	}
	render.Message(w, http.StatusOK, msgBookmarkRemoved)
}

// CheckUserRecipeSaved handles POST /user-recipe/saved/check
func (h *RecipeHandlers) CheckUserRecipeSaved(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.userRecipeRef(w, r)
	if !ok {
		return
	}
	saved, err := h.userRecipes.IsSaved(r.Context(), caller, req.UserRecipeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, savedResponse{IsSaved: saved})
}

// ListSavedUserRecipes handles GET /saved/user-recipe
func (h *RecipeHandlers) ListSavedUserRecipes(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.userRecipes.ListSaved(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, saved)
}

// UploadImage handles POST /upload-image/
func (h *RecipeHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
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
	userRecipeID, err := formInt(r, "user_recipe_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	uploaded, err := h.userRecipes.UploadImage(r.Context(), caller, userRecipeID, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, uploaded)
}

// Image handles GET /images/{user_recipe_id}
func (h *RecipeHandlers) Image(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userRecipeID, err := pathID(r, "user_recipe_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stream, err := h.userRecipes.OpenImage(r.Context(), caller, userRecipeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream.Body); err != nil {
		h.logger.Warn("Image stream interrupted", zap.Int64("user_recipe_id", userRecipeID), zap.Error(err))
	}
}

func (h *RecipeHandlers) recipeRef(w http.ResponseWriter, r *http.Request) (inbound.Caller, recipeRef, bool) {
	var req recipeRef
	caller, err := callerOf(r)
	if err == nil {
		err = h.decode.JSON(r, &req)
	}
	if err != nil {
		h.fail(w, r, err)
		return caller, req, false
	}
	return caller, req, true
}

func (h *RecipeHandlers) userRecipeRef(w http.ResponseWriter, r *http.Request) (inbound.Caller, userRecipeRef, bool) {
	var req userRecipeRef
	caller, err := callerOf(r)
	if err == nil {
		err = h.decode.JSON(r, &req)
	}
	if err != nil {
		h.fail(w, r, err)
		return caller, req, false
	}
	return caller, req, true
}

func (h *RecipeHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, h.logger, err)
}
