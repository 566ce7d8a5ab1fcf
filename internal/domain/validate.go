package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance for payload schema checks
var validate = validator.New()

// validateStruct runs the struct tag validators and folds any failure
// into ErrInvalidPayload so callers can classify it.
func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
