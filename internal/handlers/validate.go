package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("priority", "oneof=high medium low")
	return v
}

// validationDetails converts validator errors into field -> message pairs.
func validationDetails(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"payload": "invalid payload"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "priority", "oneof":
		return "must be one of high, medium, low"
	default:
		return "is invalid"
	}
}
