package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"bitbraniac-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest checks `validate` tags and returns a ValidationError that
// names the first failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation("Invalid request")
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.Validation(fmt.Sprintf("%s is required", field))
	case "max":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "uuid", "uuid4":
		return apperror.Validation(fmt.Sprintf("%s must be a valid id", field))
	default:
		return apperror.Validation(fmt.Sprintf("%s is invalid", field))
	}
}

// ParseBody decodes the JSON body into req and validates it. A malformed
// body is a ValidationError, not a 500.
func ParseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return &apperror.Error{
			Kind:    apperror.KindValidation,
			Code:    apperror.CodeInvalidInput,
			Message: "Invalid request body",
			Err:     err,
		}
	}
	return ValidateRequest(req)
}
