// Package validation hooks custom rules into gin's validator and renders
// validation failures for API responses.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Engine returns the validator gin binds requests with.
func Engine() (*validator.Validate, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v, nil
}

// RegisterStructRule attaches a struct-level rule to each of types.
func RegisterStructRule(fn validator.StructLevelFunc, types ...interface{}) error {
	v, err := Engine()
	if err != nil {
		return err
	}
	v.RegisterStructValidation(fn, types...)
	return nil
}

// Messages turns a binding error into a field -> message map. Errors that
// are not validation errors come back under "body".
func Messages(err error) map[string]string {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return "Must be a valid UUID"
	case "slot_selector":
		return "Provide slotIndex, or all of courtId, start and end"
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}

// Format flattens messages into one line, sorted by field.
func Format(messages map[string]string) string {
	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, messages[field]))
	}
	return strings.Join(parts, "; ")
}
