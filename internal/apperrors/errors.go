package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the target is in a state that does not allow the operation
// (already posted, already reversed, already finalized...).
var ErrConflict = errors.New("conflict")

// ErrInternal is the generic failure surfaced for infrastructure problems.
var ErrInternal = errors.New("internal error")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// AppError carries an HTTP-ish status code alongside a message and the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewConflictError creates an AppError that matches ErrConflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message, Err: ErrConflict}
}

// ValidationErrors is a business-rule rejection carrying one or more
// human-readable messages. It matches ErrValidation with errors.Is.
type ValidationErrors struct {
	Messages []string
}

// NewValidationErrors returns nil when there are no messages so callers can
// write `if err := apperrors.NewValidationErrors(msgs); err != nil`.
func NewValidationErrors(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &ValidationErrors{Messages: messages}
}

// NewValidationError wraps a single message.
func NewValidationError(format string, args ...any) error {
	return &ValidationErrors{Messages: []string{fmt.Sprintf(format, args...)}}
}

func (e *ValidationErrors) Error() string {
	return "validation error: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Messages extracts the human-readable messages from any error. Validation
// errors yield all of their messages; everything else yields its own text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve.Messages
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return []string{ae.Message}
	}
	return []string{err.Error()}
}
