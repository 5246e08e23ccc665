package http

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
	// Set when a failed payment confirmation was still recorded.
	PaymentID string `json:"payment_id,omitempty"`
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields under their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	// amounts are compared as decimals, never through float64
	_ = v.RegisterValidation("dgt", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		floor, err := decimal.NewFromString(fl.Param())
		return err == nil && d.GreaterThan(floor)
	})
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && d.Equal(d.Truncate(2))
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

var fieldMessages = map[string]func(e validator.FieldError) string{
	"required": func(validator.FieldError) string { return "is required" },
	"hex32":    func(validator.FieldError) string { return "must be 32-char lowercase hex" },
	"dec2":     func(validator.FieldError) string { return "must have at most 2 decimal places" },
	"email":    func(validator.FieldError) string { return "must be a valid email address" },
	"datetime": func(e validator.FieldError) string { return "must be a date formatted as " + e.Param() },
	"oneof":    func(e validator.FieldError) string { return "must be one of: " + e.Param() },
	"dgt":      func(e validator.FieldError) string { return "must be greater than " + e.Param() },
	"gte":      func(e validator.FieldError) string { return "must be greater than or equal to " + e.Param() },
	"max": func(e validator.FieldError) string {
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	},
}

// ToFieldErrors turns validator output into readable per-field messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		msg := e.Tag() + " validation failed"
		if fn, ok := fieldMessages[e.Tag()]; ok {
			msg = fn(e)
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
