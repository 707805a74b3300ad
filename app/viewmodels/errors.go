package viewmodels

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrNotReady is returned by actions issued before a successful Load.
	ErrNotReady = errors.New("view model is not ready")

	// ErrPreviewFailed marks an image URL that could not be shown.
	ErrPreviewFailed = errors.New("image preview failed")
)

// ValidationError rejects user input before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
