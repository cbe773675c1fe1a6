package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator reports fields by their json names.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return validate
}

func validateStruct(validate *validator.Validate, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	fields := make(map[string]string, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		if _, seen := fields[fieldError.Field()]; seen {
			continue
		}
		fields[fieldError.Field()] = fieldMessage(fieldError)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return "must be " + fieldError.Param() + " characters long"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + fieldError.Param()
	}
	return "is invalid"
}
