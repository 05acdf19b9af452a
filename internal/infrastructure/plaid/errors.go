package plaid

import (
	"errors"
	"fmt"
)

// Common error codes returned by Plaid.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeItemLoginRequired  = "ITEM_LOGIN_REQUIRED"
)

// Error is the error body Plaid returns with any non-200 response.
type Error struct {
	Status         int    `json:"-"`
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("plaid error (status %d): %s %s - %s", e.Status, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// ErrorCode returns the Plaid error code in err's chain, or "".
func ErrorCode(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.ErrorCode
	}
	return ""
}
