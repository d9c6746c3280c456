package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("x")), want: http.StatusInternalServerError},
		{name: "not found", err: NewBusinessReason("not found", CodeNotFound, "NOT_FOUND"), want: http.StatusNotFound},
		{name: "conflict", err: NewBusinessReason("no pending", CodeConflict, "NO_PENDING_CODE"), want: http.StatusConflict},
		{name: "gone", err: NewBusinessReason("expired", CodeGone, "EXPIRED"), want: http.StatusGone},
		{name: "unauthorized", err: NewBusinessReason("mismatch", CodeUnauthorized, "MISMATCH"), want: http.StatusUnauthorized},
		{name: "unavailable", err: NewUnavailable(errors.New("down"), "unavailable", "STORE_UNAVAILABLE"), want: http.StatusServiceUnavailable},
		{name: "invalid input", err: NewInvalidInput(errors.New("bad")), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			assert.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewBusinessReason(t *testing.T) {
	err := NewBusinessReason("Verification code has expired", CodeGone, "EXPIRED")

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Verification code has expired", gerr.Error())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, "ERROR_CODE_GONE", gerr.Code().String())
	assert.Equal(t, map[string]string{"reason": "EXPIRED"}, gerr.Fields())
}

func TestNewUnavailable(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewUnavailable(inner, "Verification store unavailable", "STORE_UNAVAILABLE")

	assert.ErrorIs(t, err, inner)

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Verification store unavailable", gerr.Msg())
	assert.Equal(t, TypeServer, gerr.Type())
	assert.Equal(t, "ERROR_CODE_UNAVAILABLE", gerr.Code().String())
}

func TestNewInvalidInput_KeyValues(t *testing.T) {
	var gerr *Error

	assert.ErrorAs(t, NewInvalidInput(nil, "email", "required"), &gerr)
	assert.Equal(t, map[string]string{"email": "required"}, gerr.Fields())

	assert.ErrorAs(t, NewInvalidInput(nil, "odd"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestError_Fallbacks(t *testing.T) {
	e := &Error{code: Code(99), errType: TypeValidation}

	assert.Equal(t, http.StatusInternalServerError, e.StatusCode())
	assert.Equal(t, "ERROR_CODE_INTERNAL", e.Code().String())
	assert.Equal(t, "ERROR_TYPE_VALIDATION", e.Error())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(7).String())
}
