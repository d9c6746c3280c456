package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNotConfigured is returned by providers that lack the settings or
// credentials to attempt delivery.
var ErrNotConfigured = errors.New("mail: provider not configured")

// Category classifies a delivery failure.
type Category int

const (
	// CategoryUnknown is any failure that fits no other category.
	CategoryUnknown Category = iota
	// CategoryNotConfigured means the provider was never attempted.
	CategoryNotConfigured
	// CategoryAuthFailure means the provider rejected our credentials.
	CategoryAuthFailure
	// CategoryTransportUnavailable means the provider could not be reached in time.
	CategoryTransportUnavailable
	// CategoryRecipientRejected means the provider refused the recipient address.
	CategoryRecipientRejected
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryNotConfigured:
		return "NOT_CONFIGURED"
	case CategoryAuthFailure:
		return "AUTH_FAILURE"
	case CategoryTransportUnavailable:
		return "TRANSPORT_UNAVAILABLE"
	case CategoryRecipientRejected:
		return "RECIPIENT_REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Error is a categorized delivery failure.
type Error struct {
	Provider string
	Category Category
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("mail: %s: %s: %v", e.Provider, e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the category of err.
//
// Errors that did not come from a provider are classified by their type only:
// context deadlines and network errors count as an unavailable transport.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var me *Error
	if errors.As(err, &me) {
		return me.Category
	}

	if errors.Is(err, ErrNotConfigured) {
		return CategoryNotConfigured
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransportUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryTransportUnavailable
	}

	return CategoryUnknown
}

func newError(provider string, category Category, err error) *Error {
	return &Error{Provider: provider, Category: category, Err: err}
}
