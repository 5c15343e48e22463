// Package utils holds small helpers shared by the HTTP handlers and the CLI.
package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/backupgw/pkg/errors"
)

// Validator holds the singleton instance of the validator.
var defaultValidator *validator.Validate

func init() {
	defaultValidator = validator.New()
	// single_line rejects values that would break an authorized_keys line.
	_ = defaultValidator.RegisterValidation("single_line", validateSingleLine)
}

// ValidateStruct validates a struct using the default validator.
// It returns a bad request AppError naming every failing field.
func ValidateStruct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrBadRequest("Invalid request").WithError(err)
	}

	appErr := errors.ErrBadRequest("")
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := toSnakeCase(fe.Field())
		msg := formatValidationError(fe)
		appErr = appErr.WithDetail(field, msg)
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	appErr.Message = "Validation failed: " + strings.Join(parts, "; ")
	return appErr
}

func validateSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "single_line":
		return "must be a single line"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// toSnakeCase converts a string from CamelCase to snake_case.
// This is used to format field names in the validation error response.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
