package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the gateway API key is missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrPaymentNotFound is returned when a payment does not exist.
	ErrPaymentNotFound = errors.New("billing: payment not found")

	// ErrCustomerNotFound is returned when a customer does not exist.
	ErrCustomerNotFound = errors.New("billing: customer not found")

	// ErrNoPaymentID is returned when the gateway accepted a payment create
	// but the response carried no identifier.
	ErrNoPaymentID = errors.New("billing: gateway returned payment without identifier")
)

// APIError wraps a gateway API error with the HTTP status and the first
// error description from the response body.
type APIError struct {
	StatusCode  int
	Code        string // gateway error code (e.g., "invalid_object")
	Description string // human-readable description from the gateway
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s (code: %s, status: %d)", e.Description, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("gateway: %s (status: %d)", e.Description, e.StatusCode)
}

// IsTemporary returns true if the error is likely transient and retryable.
func (e *APIError) IsTemporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
