package graph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

// newValidator returns a validator that knows the connection_type tag and reports fields by
// their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or a nil function.
	_ = v.RegisterValidation("connection_type", func(fl validator.FieldLevel) bool {
		return model.ConnectionType(fl.Field().String()).Valid()
	})
	return v
}

// validationError turns the result of validator.Struct into an apperror validation error.
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperror.Validation("%v", err)
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		messages = append(messages, formatFieldError(e))
	}
	return apperror.Validation("%s", strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "nefield":
		return "a contact cannot be connected to itself"
	case "connection_type":
		return fmt.Sprintf("%s %q is not a recognized connection type", field, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
