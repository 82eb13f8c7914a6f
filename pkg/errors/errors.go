// Package errors defines AppError, the only error type the HTTP layer renders.
// Application services translate domain sentinels into AppErrors; everything else
// reaching a handler is reported as an internal error.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCode is the machine readable kind of an AppError.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodePaymentRequired  ErrorCode = "PAYMENT_REQUIRED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	CodeBadGateway         ErrorCode = "BAD_GATEWAY"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest:         http.StatusBadRequest,
	CodeValidationFailed:   http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodePaymentRequired:    http.StatusPaymentRequired,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeTooManyRequests:    http.StatusTooManyRequests,
	CodeBadGateway:         http.StatusBadGateway,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

// Swedish fallbacks used when a constructor is called with an empty message.
var defaultMessage = map[ErrorCode]string{
	CodeBadRequest:   "Ogiltig förfrågan",
	CodeUnauthorized: "Du måste vara inloggad",
	CodeForbidden:    "Du har inte behörighet till denna resurs",
	CodeNotFound:     "Resursen hittades inte",
	CodeInternal:     "Ett oväntat fel inträffade",
}

// AppError carries a code, a Swedish message for the client and an optional cause.
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *AppError) Unwrap() error { return e.Cause }

// StatusCode maps the code to an HTTP status. Unknown codes are 500.
func (e *AppError) StatusCode() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithMetadata sets one metadata entry, e.g. the message of a failed field.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// newDefaulted builds an error of code, falling back to its default message.
func newDefaulted(code ErrorCode, message string) *AppError {
	if message == "" {
		message = defaultMessage[code]
	}
	return NewAppError(code, message, "")
}

func NewBadRequestError(message string) *AppError {
	return newDefaulted(CodeBadRequest, message)
}

// NewValidationError reports rejected input; details names the offending fields.
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Valideringen misslyckades", details)
}

func NewUnauthorizedError(message string) *AppError {
	return newDefaulted(CodeUnauthorized, message)
}

// NewPaymentRequiredError is returned when a paid action exceeds the caller's credit balance.
func NewPaymentRequiredError() *AppError {
	return NewAppError(CodePaymentRequired,
		"Du har inte tillräckligt med credits för att utföra denna förfrågan.", "")
}

func NewForbiddenError(message string) *AppError {
	return newDefaulted(CodeForbidden, message)
}

func NewNotFoundError(message string) *AppError {
	return newDefaulted(CodeNotFound, message)
}

func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

func NewInternalError(message string) *AppError {
	return newDefaulted(CodeInternal, message)
}

// NewDatabaseError wraps a repository failure. operation reads like "load saved recipes".
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(CodeDatabaseError, "Databasfel", "failed to "+operation).WithCause(cause)
}

// NewBadGatewayError reports a failed upstream. The cause is kept for logging only; it may
// carry URLs or credentials and is never rendered.
func NewBadGatewayError(message string, cause error) *AppError {
	return NewAppError(CodeBadGateway, message, "").WithCause(cause)
}

// NewServiceUnavailableError reports an upstream that is currently not accepting calls.
func NewServiceUnavailableError(service string, cause error) *AppError {
	return NewAppError(CodeServiceUnavailable, "Tjänsten är inte tillgänglig just nu", service+" unavailable").
		WithCause(cause)
}

// Wrap returns err itself if it already is an AppError, otherwise an internal error
// with message and err as cause. A nil err stays nil.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Is reports whether err wraps an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// ErrorResponse is the JSON body of a failed request. The frontend reads Detail.
type ErrorResponse struct {
	Detail    string                 `json:"detail"`
	Code      ErrorCode              `json:"code"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse builds the body for err. Details of internal and database errors stay
// in the logs.
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	resp := ErrorResponse{
		Detail:    err.Message,
		Code:      err.Code,
		Metadata:  err.Metadata,
		RequestID: requestID,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
	}
	switch err.Code {
	case CodeInternal, CodeDatabaseError:
	default:
		resp.Details = err.Details
	}
	return resp
}
