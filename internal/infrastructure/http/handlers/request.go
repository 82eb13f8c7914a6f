// Package handlers provides the HTTP handlers of the /v1 API.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/foodisave/backend/internal/infrastructure/http/middleware"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/ports/inbound"
	apperrors "github.com/foodisave/backend/pkg/errors"
)

const (
	msgInvalidJSON   = "Ogiltig JSON i förfrågan"
	msgInvalidID     = "Ogiltigt id"
	msgInvalidNumber = "Ogiltigt värde för %s"
	msgMissingParam  = "Parametern %s saknas"
	msgMissingFile   = "Ingen fil bifogades"
	msgFileTooLarge  = "Filen är för stor"
	msgInvalidForm   = "Ogiltigt formulär"

	// DefaultMaxUploadBytes caps multipart bodies when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
)

// decoder reads and validates request payloads.
type decoder struct {
	validator *security.ValidationService
	maxUpload int64
}

func newDecoder(v *security.ValidationService, maxUpload int64) decoder {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return decoder{validator: v, maxUpload: maxUpload}
}

// JSON decodes the body into dst and runs its validate tags.
func (d decoder) JSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewBadRequestError(msgInvalidJSON).WithDetails(err.Error())
	}
	return d.Validate(dst)
}

// Validate runs the validate tags of v.
func (d decoder) Validate(v interface{}) error {
	err := d.validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	fields := d.validator.GetValidationError(err)
	if len(fields) == 0 {
		return apperrors.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(fields))
	for _, msg := range fields {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	appErr := apperrors.NewValidationError(strings.Join(msgs, "; "))
	for field, msg := range fields {
		appErr.WithMetadata(field, msg)
	}
	return appErr
}

// Image reads the "file" part of a multipart form.
func (d decoder) Image(w http.ResponseWriter, r *http.Request) (inbound.ImageUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, d.maxUpload)
	if err := r.ParseMultipartForm(d.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return inbound.ImageUpload{}, apperrors.NewBadRequestError(msgFileTooLarge)
		}
		return inbound.ImageUpload{}, apperrors.NewBadRequestError(msgInvalidForm).WithDetails(err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return inbound.ImageUpload{}, apperrors.NewBadRequestError(msgMissingFile)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return inbound.ImageUpload{}, apperrors.NewBadRequestError(msgInvalidForm).WithDetails(err.Error())
	}
	return inbound.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(msgInvalidID)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. Absent or empty yields nil.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf(msgInvalidNumber, name))
	}
	return &n, nil
}

// formInt parses a required integer form field.
func formInt(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, apperrors.NewValidationError(fmt.Sprintf(msgMissingParam, name))
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf(msgInvalidNumber, name))
	}
	return n, nil
}

// callerOf returns the caller stored by middleware.Authenticate.
func callerOf(r *http.Request) (inbound.Caller, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return inbound.Caller{}, apperrors.NewUnauthorizedError("")
	}
	return caller, nil
}
