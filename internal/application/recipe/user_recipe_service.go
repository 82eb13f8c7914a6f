package recipe

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	aiapp "github.com/foodisave/backend/internal/application/ai"
	"github.com/foodisave/backend/internal/domain/recipe"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgUserRecipeMissing = "Användarreceptet hittades inte"
	msgNoUserRecipes     = "Inga recept hittades för användaren"
	msgNotOwner          = "Du har inte behörighet att ändra detta recept"
	msgImageMissing      = "Bilden hittades inte"
	msgImageForbidden    = "Du har inte behörighet att se denna bild"
	msgStorage           = "Fel vid hantering av bilden"
)

// ObjectKeyFunc builds the storage key for an upload.
type ObjectKeyFunc func(folder, fileName string) string

// UserRecipeService implements the user recipe use cases
type UserRecipeService struct {
	recipes      outbound.UserRecipeRepository
	ledger       outbound.CreditLedger
	tx           outbound.Transactor
	gate         *aiapp.ModerationGate
	storage      outbound.StorageService
	objectKey    ObjectKeyFunc
	uploadFolder string
	metrics      outbound.BusinessMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewUserRecipeService creates a new user recipe service
func NewUserRecipeService(
	recipes outbound.UserRecipeRepository,
	ledger outbound.CreditLedger,
	tx outbound.Transactor,
	gate *aiapp.ModerationGate,
	storage outbound.StorageService,
	objectKey ObjectKeyFunc,
	uploadFolder string,
	metrics outbound.BusinessMetrics,
	logger *zap.Logger,
) *UserRecipeService {
	if uploadFolder == "" {
		uploadFolder = "uploads"
	}
	return &UserRecipeService{
		recipes:      recipes,
		ledger:       ledger,
		tx:           tx,
		gate:         gate,
		storage:      storage,
		objectKey:    objectKey,
		uploadFolder: uploadFolder,
		metrics:      metrics,
		logger:       logger.Named("user-recipe-service"),
		now:          time.Now,
	}
}

var _ inbound.UserRecipeService = (*UserRecipeService)(nil)

// Create stores r with the caller as owner, whatever owner the payload named.
func (s *UserRecipeService) Create(ctx context.Context, caller inbound.Caller, r *recipe.UserRecipe) (*recipe.UserRecipe, error) {
	owner := caller.UserID
	r.ID = 0
	r.UserID = &owner
	r.CreatedAt = s.now().UTC()
	if r.Servings == 0 {
		r.Servings = 1
	}
	if err := r.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.recipes.Create(ctx, r); err != nil {
		return nil, apperrors.NewDatabaseError("create user recipe", err)
	}
	s.logger.Info("User recipe created",
		zap.Int64("id", r.ID),
		zap.Int64("user_id", owner),
		zap.Bool("is_ai", r.IsAI),
	)
	return r, nil
}

func (s *UserRecipeService) ListByUser(ctx context.Context, userID int64) ([]*recipe.UserRecipe, error) {
	list, err := s.recipes.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list user recipes", err)
	}
	if len(list) == 0 {
		return nil, apperrors.NewNotFoundError(msgNoUserRecipes)
	}
	return list, nil
}

func (s *UserRecipeService) Update(ctx context.Context, caller inbound.Caller, id int64, patch recipe.UserRecipePatch) (*recipe.UserRecipe, error) {
	r, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(r); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.recipes.Update(ctx, r); err != nil {
		if errors.Is(err, recipe.ErrUserRecipeMissing) {
			return nil, apperrors.NewNotFoundError(msgUserRecipeMissing)
		}
		return nil, apperrors.NewDatabaseError("update user recipe", err)
	}
	return r, nil
}

func (s *UserRecipeService) Delete(ctx context.Context, caller inbound.Caller, id int64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, recipe.ErrUserRecipeMissing) {
			return apperrors.NewNotFoundError(msgUserRecipeMissing)
		}
		return apperrors.NewDatabaseError("delete user recipe", err)
	}
	s.logger.Info("User recipe deleted", zap.Int64("id", id), zap.Int64("by", caller.UserID))
	return nil
}

func (s *UserRecipeService) Save(ctx context.Context, caller inbound.Caller, userRecipeID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, userRecipeID); err != nil {
			return err
		}
		if err := s.recipes.Save(ctx, caller.UserID, userRecipeID); err != nil {
			if errors.Is(err, recipe.ErrAlreadySaved) {
				return apperrors.NewConflictError(msgAlreadySaved)
			}
			return apperrors.NewDatabaseError("save user recipe", err)
		}
		return grantBookmarkBonus(ctx, s.ledger, s.metrics, s.logger, caller.UserID, s.now())
	})
}

func (s *UserRecipeService) Unsave(ctx context.Context, caller inbound.Caller, userRecipeID int64) error {
	if err := s.recipes.Unsave(ctx, caller.UserID, userRecipeID); err != nil {
		if errors.Is(err, recipe.ErrNotSaved) {
			return apperrors.NewNotFoundError(msgNotSaved)
		}
		return apperrors.NewDatabaseError("unsave user recipe", err)
	}
	return nil
}

func (s *UserRecipeService) IsSaved(ctx context.Context, caller inbound.Caller, userRecipeID int64) (bool, error) {
	saved, err := s.recipes.IsSaved(ctx, caller.UserID, userRecipeID)
	if err != nil {
		return false, apperrors.NewDatabaseError("check saved user recipe", err)
	}
	return saved, nil
}

func (s *UserRecipeService) ListSaved(ctx context.Context, caller inbound.Caller) ([]*recipe.UserRecipe, error) {
	saved, err := s.recipes.FindSaved(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list saved user recipes", err)
	}
	if len(saved) == 0 {
		return nil, apperrors.NewNotFoundError(msgNoSaved)
	}
	return saved, nil
}

// UploadImage moderates the file, stores it privately and links it to the recipe.
func (s *UserRecipeService) UploadImage(ctx context.Context, caller inbound.Caller, userRecipeID int64, file inbound.ImageUpload) (*inbound.UploadedImage, error) {
	contentType, err := aiapp.SniffImageType(file.Data)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, caller, userRecipeID); err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(ctx, file.FileName, file.Data); err != nil {
		return nil, err
	}

	key := s.objectKey(s.uploadFolder, "image."+aiapp.Extension(contentType))
	link, err := s.storage.Upload(ctx, key, bytes.NewReader(file.Data), contentType)
	if err != nil {
		s.logger.Error("Image upload failed", zap.Int64("user_id", caller.UserID), zap.Error(err))
		return nil, apperrors.NewBadGatewayError(msgStorage, err)
	}

	owner, recipeID := caller.UserID, userRecipeID
	img := &recipe.Image{Link: link, UserID: &owner, UserRecipeID: &recipeID}
	if err := s.recipes.CreateImage(ctx, img); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), link); delErr != nil {
			s.logger.Error("Orphaned image left in storage", zap.String("link", link), zap.Error(delErr))
		}
		return nil, apperrors.NewDatabaseError("create image", err)
	}
	return &inbound.UploadedImage{
		ImageID:  img.ID,
		ImageURL: ImagePath(userRecipeID),
	}, nil
}

// OpenImage streams the latest image of a recipe to its uploader or the recipe owner.
func (s *UserRecipeService) OpenImage(ctx context.Context, caller inbound.Caller, userRecipeID int64) (*inbound.ImageStream, error) {
	img, err := s.recipes.FindImageByUserRecipe(ctx, userRecipeID)
	if err != nil {
		if errors.Is(err, recipe.ErrImageNotFound) {
			return nil, apperrors.NewNotFoundError(msgImageMissing)
		}
		return nil, apperrors.NewDatabaseError("find image", err)
	}

	allowed := caller.IsAdmin || (img.UserID != nil && *img.UserID == caller.UserID)
	if !allowed {
		r, err := s.find(ctx, userRecipeID)
		if err != nil {
			return nil, err
		}
		allowed = r.OwnedBy(caller.UserID)
	}
	if !allowed {
		return nil, apperrors.NewForbiddenError(msgImageForbidden)
	}

	body, err := s.storage.Open(ctx, img.Link)
	if err != nil {
		if errors.Is(err, outbound.ErrObjectNotFound) {
			return nil, apperrors.NewNotFoundError(msgImageMissing)
		}
		return nil, apperrors.NewBadGatewayError(msgStorage, err)
	}
	return &inbound.ImageStream{Body: body, ContentType: ContentTypeFor(img.Link)}, nil
}

// ImagePath is the API path an uploaded image is served from.
func ImagePath(userRecipeID int64) string {
	return "/v1/images/" + strconv.FormatInt(userRecipeID, 10)
}

// ContentTypeFor derives the response content type from the object extension.
func ContentTypeFor(link string) string {
	switch strings.ToLower(path.Ext(link)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func (s *UserRecipeService) find(ctx context.Context, id int64) (*recipe.UserRecipe, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrUserRecipeMissing) {
			return nil, apperrors.NewNotFoundError(msgUserRecipeMissing)
		}
		return nil, apperrors.NewDatabaseError("find user recipe", err)
	}
	return r, nil
}

// owned loads the recipe and checks that the caller owns it or is an administrator.
func (s *UserRecipeService) owned(ctx context.Context, caller inbound.Caller, id int64) (*recipe.UserRecipe, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !r.OwnedBy(caller.UserID) {
		return nil, apperrors.NewForbiddenError(msgNotOwner)
	}
	return r, nil
}
