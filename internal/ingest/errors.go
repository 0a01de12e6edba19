package ingest

import (
	"errors"
	"fmt"
)

// ValidationError rejects an upload before any I/O. Message is shown to the
// user as is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError reports a failed write of blob content or metadata. No record
// is left behind when it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Describe reduces err to a message suitable for a widget response and
// whether retrying the same request may succeed.
func Describe(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message, false
	}

	var storage *StorageError
	if errors.As(err, &storage) {
		return "The file could not be stored, please try again", true
	}

	return "Internal server error", true
}

// IsValidation reports whether err rejects the upload itself.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
