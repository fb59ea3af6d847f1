package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four outcome classes the service layer can
// produce. Handlers map these to HTTP statuses; nothing else escapes the
// service boundary unclassified.
var (
	// ErrNotFound covers both "does not exist" and "exists but not visible".
	// The two are deliberately indistinguishable so reads never leak the
	// existence of private recipes.
	ErrNotFound = errors.New("not found")

	// ErrPermission means the caller lacks the ownership, admin or
	// friendship standing required for a mutation.
	ErrPermission = errors.New("permission denied")

	// ErrConflict means a uniqueness or state guard was hit: duplicate
	// friendship/request/share, or a visibility change on a shared recipe.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState means acting on an already-resolved request or
	// pending share.
	ErrInvalidState = errors.New("invalid state")
)

// AppError carries a user-facing message alongside the outcome class.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func PermissionDenied(message string) *AppError {
	return &AppError{
		Err:     ErrPermission,
		Message: message,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func InvalidState(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: message,
	}
}
