// Package validate wraps struct validation and maps failures onto coded
// domain errors with per-field messages.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "campusboard/pkg/domain-errors"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	// Report the JSON wire name rather than the Go field name.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct validates s and returns a CodeValidation domain error carrying one
// FieldError per violation, or nil when s passes.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validation failed")
	}
	fields := make([]dErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dErrors.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return dErrors.NewValidation("invalid input", fields...)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "datetime":
		return "has an invalid format"
	default:
		return "is invalid"
	}
}
