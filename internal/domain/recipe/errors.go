package recipe

import "errors"

// MaxNameLength matches the width of the name columns.
const MaxNameLength = 100

var (
	ErrNotFound          = errors.New("recipe not found")
	ErrUserRecipeMissing = errors.New("user recipe not found")
	ErrImageNotFound     = errors.New("image not found")
	ErrAlreadySaved      = errors.New("recipe already saved")
	ErrNotSaved          = errors.New("recipe not saved")
	ErrNotOwner          = errors.New("only the recipe owner can perform this action")

	ErrNameRequired    = errors.New("recipe name is required")
	ErrNameTooLong     = errors.New("recipe name must not exceed 100 characters")
	ErrInvalidServings = errors.New("servings must be greater than 0")
	ErrInvalidPage     = errors.New("page must be zero or greater")
	ErrInvalidPageSize = errors.New("page_size must be between 1 and 100")
)
