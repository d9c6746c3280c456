// Package validator checks request inputs before they reach the stores.
//
// Failures come back as V10ValidationError so the HTTP layer can render a
// per-field error map. The "otpcode" rule enforces the six-digit code shape.
package validator
