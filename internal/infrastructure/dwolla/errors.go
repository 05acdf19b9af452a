package dwolla

import (
	"fmt"
	"strings"
)

// Error is the HAL error body returned by the Dwolla API.
type Error struct {
	Status   int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Embedded struct {
		Errors []FieldError `json:"errors"`
	} `json:"_embedded"`
}

type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("dwolla error (status %d): %s - %s", e.Status, e.Code, e.Message)
	if len(e.Embedded.Errors) > 0 {
		parts := make([]string, 0, len(e.Embedded.Errors))
		for _, fe := range e.Embedded.Errors {
			parts = append(parts, fe.Path+": "+fe.Message)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

// ProviderCode exposes the error code to the payment domain.
func (e *Error) ProviderCode() string { return e.Code }
