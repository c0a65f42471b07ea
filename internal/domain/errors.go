package domain

import (
	"errors"
	"fmt"
)

// ValidationError signals a business-rule violation: allocation weights not
// summing to 100, closing a trade that is not open, unknown entity ids.
// Numeric degeneracies (missing history, zero variance) are never errors;
// those collapse into documented neutral defaults inside the analyzers.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError with a formatted message
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
