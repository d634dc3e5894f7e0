package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/shotplot/backend/internal/common/constants"
)

type credentialValidator struct {
	v *validator.Validate
}

func newCredentialValidator() credentialValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// bcrypt reads at most 72 bytes; validator's max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= constants.PasswordMaxBytes
	})
	return credentialValidator{v: v}
}

// validate returns ErrValidation carrying a message naming the violated
// constraint, or nil.
func (cv credentialValidator) validate(input any) error {
	err := cv.v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ErrValidation.WithCause(err)
	}

	fe := fieldErrs[0]
	return ErrValidation.WithMessage(describe(fe)).WithCause(err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %d bytes", field, constants.PasswordMaxBytes)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
