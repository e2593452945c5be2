// Package errors provides custom error types for catalog operations.
package errors

import (
	"errors"
	"fmt"
)

var ErrMedicineNotFound = errors.New("medicine not found")
var ErrCategoryNotFound = errors.New("category not found")

// ValidationError reports a rejected create/update request. Field names
// the first input that failed, in the fixed check order.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
