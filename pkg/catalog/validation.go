package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// identPattern matches type, member and method names. A leading underscore
// marks private entries.
var identPattern = regexp.MustCompile(`^_?[A-Za-z][A-Za-z0-9_]*$`)

// validate is the singleton validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidators(validate)
}

// registerCustomValidators registers custom validation functions.
func registerCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("paramtype", func(fl validator.FieldLevel) bool {
		_, ok := paramTypes[fl.Field().String()]
		return ok
	})
}

// ValidationError wraps validation errors with context.
type ValidationError struct {
	Field   string
	Tag     string
	Value   interface{}
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)",
		e.Field, e.Message, e.Value)
}

// WrapValidationErrors converts validator.ValidationErrors to a readable error.
func WrapValidationErrors(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	if len(validationErrors) == 0 {
		return nil
	}

	// Return the first validation error for clarity.
	fe := validationErrors[0]
	return ValidationError{
		Field:   fe.Namespace(),
		Tag:     fe.Tag(),
		Value:   fe.Value(),
		Message: formatValidationMessage(fe),
	}
}

// formatValidationMessage creates a human-readable validation message.
func formatValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "ident":
		return "must be an identifier (letters, digits and underscores, optional leading underscore)"
	case "paramtype":
		return fmt.Sprintf("must be one of: %s", paramTypeList())
	default:
		return fmt.Sprintf("failed validation '%s'", fe.Tag())
	}
}
