package purchase

import (
	"errors"
	"fmt"
)

// ErrPaymentIncomplete indicates the processor reported a non-terminal
// status. The payment is not failed, but it did not succeed yet either.
var ErrPaymentIncomplete = errors.New("payment not complete")

// ErrNoPaymentInProgress indicates a confirmation was attempted without an
// initiated payment to confirm.
var ErrNoPaymentInProgress = errors.New("no payment in progress")

// APIError represents a non-retryable failure response from the billing API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("billing api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("billing api: unexpected status %d", e.StatusCode)
}

// Is reports whether target is an APIError with the same status code.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.StatusCode == 0 || other.StatusCode == e.StatusCode
}
