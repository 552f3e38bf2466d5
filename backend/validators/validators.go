// Package validators checks the shape of incoming request bodies. Checks
// have no side effects and report every violation at once.
package validators

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"ieltsprep/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("strongpassword", strongPassword)
	})
	return validate
}

// strongPassword requires an upper-case letter, a lower-case letter and a digit.
func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Struct validates v and returns its violations, or nil when v is acceptable.
func Struct(v interface{}) []utils.FieldError {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []utils.FieldError{{Message: err.Error()}}
	}

	fields := make([]utils.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, utils.FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "strongpassword":
		return "must contain an upper-case letter, a lower-case letter and a digit"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// ParseBody decodes the JSON body into v and validates it. An empty body is
// treated as an empty object. Violations come back as a ValidationError so
// handlers can return them unchanged.
func ParseBody(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(v); err != nil {
			return utils.NewValidationError("Cannot parse request body", utils.FieldError{Message: err.Error()})
		}
	}
	if n, ok := v.(normalizer); ok {
		n.Normalize()
	}
	if fields := Struct(v); fields != nil {
		return utils.NewValidationError("Validation failed", fields...)
	}
	return nil
}

// normalizer is implemented by requests that canonicalise fields before validation.
type normalizer interface {
	Normalize()
}
