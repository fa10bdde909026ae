package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response[T any] struct {
	Data    T            `json:"data"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message"`
}

// CreateResponse builds the common envelope. req is the bound request body, used only to
// resolve json field names for validation errors.
func CreateResponse[T any](data T, err error, req any, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Message: message,
	}
	if err == nil {
		return resp
	}

	resp.Error = err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Errors = fieldErrors(verrs)
		resp.Error = "invalid request"
	}
	return resp
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   jsonName(fe),
			Message: describe(fe),
		})
	}
	return out
}

func jsonName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "decimal_amount":
		return "must be a positive decimal number"
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '.' && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
