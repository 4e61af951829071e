package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorBody is the standard envelope for validation failures.
type ErrorBody struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// ErrorResponse converts a validator error into the response envelope.
func ErrorResponse(err error) ErrorBody {
	details := map[string][]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			details[field] = append(details[field], fe.Tag())
		}
	}
	if len(details) == 0 {
		return ErrorBody{Success: false, Error: err.Error()}
	}
	return ErrorBody{Success: false, Error: "Missing required fields", Details: details}
}
