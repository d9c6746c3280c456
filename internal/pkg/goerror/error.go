// Package goerror carries the error taxonomy shared by stores, usecases and
// the HTTP layer. Stores return the sentinel errors; usecases wrap outcomes in
// *Error; the router turns *Error into a status code and envelope.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when no record exists for a key.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores on a unique-key violation.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code selects the HTTP status an error is rendered with.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	// CodeGone marks something that existed but can no longer be used, such
	// as an expired verification code.
	CodeGone
	// CodeUnavailable marks a dependency outage the caller may retry.
	CodeUnavailable
)

var codeTable = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:  {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeGone:          {"ERROR_CODE_GONE", http.StatusGone},
	CodeUnavailable:   {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if e, ok := codeTable[c]; ok {
		return e.name
	}
	return codeTable[CodeInternal].name
}

// Error pairs an optional cause with the message shown to clients and the
// fields rendered under "error" in the response envelope.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v fields=%v", e.errType, e.code, e.msg, e.err, e.fields)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps Code to an HTTP status; unknown codes become 500.
func (e *Error) StatusCode() int {
	if c, ok := codeTable[e.code]; ok {
		return c.status
	}
	return http.StatusInternalServerError
}

func reasonFields(reason string) map[string]string {
	return map[string]string{"reason": reason}
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusinessReason is a rule violation with a machine-readable reason,
// rendered as {"error":{"reason":...}}.
func NewBusinessReason(msg string, code Code, reason string) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code, fields: reasonFields(reason)}
}

// NewUnavailable reports a failing dependency as a retryable 503.
func NewUnavailable(err error, msg, reason string) error {
	return &Error{err: err, msg: msg, errType: TypeServer, code: CodeUnavailable, fields: reasonFields(reason)}
}

// NewInvalidInput wraps a validator error, or builds one from key/value pairs
// when err is nil. An odd number of pairs degrades to NewInvalidFormat.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat is a 400 for bodies that cannot be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
