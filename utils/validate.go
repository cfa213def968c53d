package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	upiPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
)

// Validator returns the shared validator. Field names in errors are the json names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// upi_id accepts an empty value so it can follow required_if.
		_ = validate.RegisterValidation("upi_id", func(fl validator.FieldLevel) bool {
			v := fl.Field().String()
			return v == "" || upiPattern.MatchString(v)
		})
	})
	return validate
}

// EchoValidator plugs the shared validator into echo's c.Validate.
type EchoValidator struct{}

func (EchoValidator) Validate(i interface{}) error {
	return Validator().Struct(i)
}

// ValidationMessage renders validator errors as one readable sentence.
func ValidationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field()+": "+fieldMessage(e))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "numeric":
		return "must be numeric"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "upi_id":
		return "invalid UPI id"
	default:
		return "invalid value"
	}
}
