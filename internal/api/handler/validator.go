package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zabank/ledger-api/internal/core/domain"
	"github.com/zabank/ledger-api/internal/core/validate"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// It registers the account field tags letters, za_phone, za_id and username.
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "letters", validate.IsValidName)
	mustRegister(v, "za_phone", validate.IsValidPhone)
	mustRegister(v, "za_id", validate.IsValidID)
	mustRegister(v, "username", validate.IsValidUsername)
	return &echoValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, pred func(string) bool) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pred(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validator: register %s: %v", tag, err))
	}
}

// Validate satisfies the echo.Validator interface. Field failures come back
// as a single domain validation error.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return domain.ValidationError("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "letters":
		return field + " must contain only letters (no numbers or special characters)"
	case "za_phone":
		return "invalid phone number, use format +27821234567"
	case "za_id":
		return "invalid ID number, must be a 13-digit number"
	case "username":
		return "username must contain at least one letter and only letters or digits"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
