package helper

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator reports fields by their json (or query) name, e.g. course_ids[0].
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Validate runs the struct tags of a request DTO.
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidationFieldErrors flattens validator errors into field → tags.
func ValidationFieldErrors(err error) map[string][]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}

// ValidationError: khusus error validasi (validator.v10)
func ValidationError(c *fiber.Ctx, err error) error {
	fields := ValidationFieldErrors(err)
	if fields == nil {
		return JsonError(c, fiber.StatusBadRequest, "Invalid input")
	}
	return JsonValidationError(c, "validation failed", fields)
}
