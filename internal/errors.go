package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation_failed"
	ErrorTypeMissingRequired ErrorType = "missing_required"
	ErrorTypeBadRequest      ErrorType = "bad_request"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeInternal        ErrorType = "server_error"
)

// AppError is the error shape every handler writes back to the caller.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Message    string      `json:"message"`
	Details    interface{} `json:"-"`
	StatusCode int         `json:"code"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches copies made by WithCause and WithDetails against their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WithCause returns a copy so shared sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Fields reports the offending fields of a validation or missing_required error.
func (e *AppError) Fields() interface{} {
	switch d := e.Details.(type) {
	case ValidationErrors:
		seen := make(map[string]bool, len(d.Errors))
		fields := make([]string, 0, len(d.Errors))
		for _, ve := range d.Errors {
			if seen[ve.Field] {
				continue
			}
			seen[ve.Field] = true
			fields = append(fields, ve.Field)
		}
		return fields
	case map[string]string:
		return d
	}
	return nil
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(errs ...ValidationError) *AppError {
	messages := make([]string, len(errs))
	for i, ve := range errs {
		messages[i] = ve.Message
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    "Validation error: " + strings.Join(messages, "; "),
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: errs},
	}
}

func NewValidationFieldError(field, message string) *AppError {
	return NewValidationError(ValidationError{Field: field, Message: message})
}

func NewMissingRequiredError(fields ...string) *AppError {
	details := make(map[string]string, len(fields))
	for _, f := range fields {
		details[f] = fmt.Sprintf("Required field %s missing", f)
	}
	return &AppError{
		Type:       ErrorTypeMissingRequired,
		Message:    "Missing required fields",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUnauthorized  = NewUnauthorizedError("Unauthorized")
	ErrForbidden     = NewForbiddenError("Forbidden")
	ErrInvalidToken  = NewUnauthorizedError("Invalid token")
	ErrTokenExpired  = NewUnauthorizedError("Token has expired")
	ErrInvalidAPIKey = NewUnauthorizedError("Invalid API key.")
	ErrInvalidBody   = NewBadRequestError("Invalid request body")

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password")
	ErrInvalidRefresh     = NewUnauthorizedError("Invalid refresh token")
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    int         `json:"code"`
		Type    ErrorType   `json:"type"`
		Message string      `json:"message"`
		Fields  interface{} `json:"fields,omitempty"`
	}{
		Code:    e.StatusCode,
		Type:    e.Type,
		Message: e.Message,
		Fields:  e.Fields(),
	})
}
