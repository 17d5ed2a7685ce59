// Package validator wraps the go-playground/validator library to provide
// declarative struct validation with standardized error formatting.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the root of the multi-error chain returned when one
// or more validation rules are violated. It lets callers detect validation
// failures with errors.Is regardless of how many fields failed.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is the singleton instance, initialized on package load.
var validator *gvalidator.Validate

// errStringFormat describes a single field failure.
//
// Example: "'Endpoint': value '' does not meet the requirements for the 'required' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError converts raw validator errors into a joined error chain rooted
// at ErrValidationFailed, one formatted entry per failed field. Non
// validation errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its `validate` tags. It returns
// nil when every field passes, or an error chain that includes
// ErrValidationFailed otherwise.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
