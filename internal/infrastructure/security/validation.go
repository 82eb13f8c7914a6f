package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationService validates decoded request payloads
type ValidationService struct {
	validator *validator.Validate
}

// NewValidationService creates a new validation service
func NewValidationService() *ValidationService {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report the JSON or form name of a field instead of the Go name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("not_blank", validateNotBlank)
	_ = validate.RegisterValidation("ingredient_list", validateIngredientList)

	return &ValidationService{validator: validate}
}

// validateNotBlank rejects strings made only of whitespace
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateIngredientList accepts a comma separated list without markup
func validateIngredientList(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.ContainsAny(value, "<>") {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ValidateStruct validates a struct using the validation rules
func (v *ValidationService) ValidateStruct(s interface{}) error {
	return v.validator.Struct(s)
}

// GetValidationError formats validation errors for API responses
func (v *ValidationService) GetValidationError(err error) map[string]string {
	out := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return out
	}
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required", "not_blank":
			out[field] = fmt.Sprintf("%s måste anges", field)
		case "email":
			out[field] = fmt.Sprintf("%s måste vara en giltig e-postadress", field)
		case "min":
			out[field] = fmt.Sprintf("%s måste vara minst %s", field, e.Param())
		case "max":
			out[field] = fmt.Sprintf("%s får vara högst %s", field, e.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s måste vara minst %s", field, e.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s får vara högst %s", field, e.Param())
		case "ingredient_list":
			out[field] = "Ogiltig ingredienslista"
		default:
			out[field] = fmt.Sprintf("%s är ogiltigt", field)
		}
	}
	return out
}
