package validator

import (
	"errors"
	"fmt"
	"strings"

	"gamebank/internal/joincode"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidInput = errors.New("invalid input")

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
		return joincode.Valid(fl.Field().String())
	})
	return v
}

// FieldError names the first offending field and the rule it broke.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return &FieldError{Field: lowerFirst(first.Field()), Rule: first.Tag()}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	return strings.ToLower(value[:1]) + value[1:]
}
