package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// notblank rejects values that are empty once surrounding whitespace is removed.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

var fieldErrors = map[string]error{
	"title":       ErrInvalidTitle,
	"name":        ErrInvalidName,
	"color":       ErrInvalidColor,
	"status":      ErrInvalidStatus,
	"priority":    ErrInvalidPriority,
	"category_id": ErrInvalidID,
}

// validateStruct runs struct validation and maps the first failing field to
// its domain sentinel error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	if sentinel, ok := fieldErrors[first.Field()]; ok {
		return sentinel
	}
	return err
}
