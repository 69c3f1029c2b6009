// Package validator wraps the go-playground/validator library, enabling
// declarative struct validation with standardized error formatting. Fields
// are validated via tags (e.g., `validate:"required"`); violations produce a
// combined error rooted at ErrValidationFailed.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the first error in the chain returned when
// validation fails, letting callers detect validation failures explicitly.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is a singleton instance, initialized on package load.
var validator *gvalidator.Validate

// errStringFormat describes a single field violation.
//
// Example: "'Address': value '' does not meet the requirements for the 'required' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError transforms a raw validator error into a structured multi-error
// chain rooted at ErrValidationFailed. Non-validation errors pass through
// unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		err := fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks whether the given struct satisfies its validation tags. It
// returns nil on success, or a combined error including ErrValidationFailed
// and one formatted message per failing field.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
