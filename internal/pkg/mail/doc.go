// Package mail defines the contracts for sending email messages.
//
// The rest of the application stays independent from a specific email
// provider: callers work with the Mail interface and the Message payload, and
// every concrete transport (SMTP relay, SendGrid API) reports failures as a
// *Error carrying one Category from a closed set, so callers never need to
// inspect provider-specific error text.
package mail
