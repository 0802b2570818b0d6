package forms

import (
	"fmt"
	"strings"
)

// Validation error codes.
const (
	CodeMissingFields = "missing_fields"
	CodeInvalidEmail  = "invalid_email"
	CodeInvalidSource = "invalid_source"
)

// ValidationError reports why a submission cannot become a lead. Fields
// holds the JSON names of the offending fields.
type ValidationError struct {
	Code   string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "forms: " + e.Code
	}
	return fmt.Sprintf("forms: %s: %s", e.Code, strings.Join(e.Fields, ", "))
}

// Message is the client-facing text for the error.
func (e *ValidationError) Message() string {
	switch e.Code {
	case CodeMissingFields:
		return "Please fill in all required fields: " + strings.Join(e.Fields, ", ")
	case CodeInvalidEmail:
		return "Please enter a valid email address."
	case CodeInvalidSource:
		return "Unsupported form type."
	default:
		return "Invalid submission."
	}
}
