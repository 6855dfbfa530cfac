package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go ones
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrEmptyBody is returned when a JSON body is required but missing
var ErrEmptyBody = errors.New("request body is empty")

// ValidateRequest validates a struct against its validate tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes a JSON request body, rejecting unknown fields, and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make([]ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		// Drop the struct name from "request.variants[0].name"
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, ValidationError{Field: field, Message: getErrorMessage(e)})
	}
	return out
}

// RespondWithBindError writes the 400 matching a DecodeAndValidate failure
func RespondWithBindError(w http.ResponseWriter, err error) {
	if fields := FormatValidationErrors(err); fields != nil {
		RespondWithValidationErrors(w, fields)
		return
	}
	RespondWithError(w, http.StatusBadRequest, err.Error())
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "oneof":
		return "Value must be one of: " + e.Param()
	case "uuid":
		return "Value must be a UUID"
	case "url":
		return "Value must be a URL"
	case "unique":
		return "Values must be unique"
	default:
		return "Invalid value"
	}
}
