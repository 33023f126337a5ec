// Package validation wraps a shared go-playground validator and translates its
// failures into apperr validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"taskflow/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the shared validator. Field names in messages come from json tags.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			f := fl.Field()
			if f.Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(f.String()) != ""
		})
	})
	return validate
}

// Struct validates s and returns an apperr validation error describing the
// first failing field.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Wrap(apperr.KindValidation, message(fieldErrs[0]), err)
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid request", err)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
