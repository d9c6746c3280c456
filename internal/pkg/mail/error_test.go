package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{name: "nil", err: nil, want: CategoryUnknown},
		{name: "provider error", err: newError("smtp", CategoryAuthFailure, errors.New("535")), want: CategoryAuthFailure},
		{name: "wrapped provider error", err: fmt.Errorf("send: %w", newError("sendgrid", CategoryRecipientRejected, errors.New("bad"))), want: CategoryRecipientRejected},
		{name: "not configured", err: ErrNotConfigured, want: CategoryNotConfigured},
		{name: "deadline", err: context.DeadlineExceeded, want: CategoryTransportUnavailable},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: CategoryTransportUnavailable},
		{name: "other", err: errors.New("boom"), want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestError(t *testing.T) {
	inner := errors.New("connection refused")
	err := newError("smtp", CategoryTransportUnavailable, inner)

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "mail: smtp: TRANSPORT_UNAVAILABLE: connection refused", err.Error())
	assert.Equal(t, "NOT_CONFIGURED", CategoryNotConfigured.String())
	assert.Equal(t, "UNKNOWN", Category(99).String())
}
