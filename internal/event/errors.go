package event

import (
	"errors"
	"fmt"
)

// SubscriptionError represents a programmer error in a subscription or
// replay call: a malformed event name or a nil callback. These fail fast
// at registration time instead of being deferred to dispatch.
type SubscriptionError struct {
	// Code identifies the error category.
	Code SubscriptionErrorCode

	// EventName is the offending name, if any.
	EventName string

	// Message is a human-readable description.
	Message string
}

// SubscriptionErrorCode categorizes subscription errors.
type SubscriptionErrorCode string

const (
	// ErrCodeBadName indicates an event name that does not parse as
	// "namespace:action".
	ErrCodeBadName SubscriptionErrorCode = "BAD_EVENT_NAME"

	// ErrCodeBadCallback indicates a nil callback.
	ErrCodeBadCallback SubscriptionErrorCode = "BAD_CALLBACK"
)

// Error implements the error interface.
func (e *SubscriptionError) Error() string {
	if e.EventName != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventName)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSubscriptionError returns true if the error is a subscription error.
// Uses errors.As to handle wrapped errors.
func IsSubscriptionError(err error) bool {
	var se *SubscriptionError
	return errors.As(err, &se)
}

// NewBadNameError creates a SubscriptionError for a malformed name.
func NewBadNameError(raw string) *SubscriptionError {
	return &SubscriptionError{
		Code:      ErrCodeBadName,
		EventName: raw,
		Message:   `event name must be "namespace:action"`,
	}
}

// NewBadCallbackError creates a SubscriptionError for a nil callback.
func NewBadCallbackError(eventName string) *SubscriptionError {
	return &SubscriptionError{
		Code:      ErrCodeBadCallback,
		EventName: eventName,
		Message:   "callback must be non-nil",
	}
}
