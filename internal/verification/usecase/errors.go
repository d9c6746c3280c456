package usecase

import "github.com/jobboard/verification/internal/pkg/goerror"

// Reasons are stable machine-readable values returned to clients under error.reason.
const (
	ReasonNotFound         = "NOT_FOUND"
	ReasonNoPendingCode    = "NO_PENDING_CODE"
	ReasonExpired          = "EXPIRED"
	ReasonMismatch         = "MISMATCH"
	ReasonStoreUnavailable = "STORE_UNAVAILABLE"
)

var (
	ErrNotFound      = goerror.NewBusinessReason("No verification found for this email", goerror.CodeNotFound, ReasonNotFound)
	ErrNoPendingCode = goerror.NewBusinessReason("No verification code is pending", goerror.CodeConflict, ReasonNoPendingCode)
	ErrExpired       = goerror.NewBusinessReason("Verification code has expired", goerror.CodeGone, ReasonExpired)
	ErrMismatch      = goerror.NewBusinessReason("Verification code does not match", goerror.CodeUnauthorized, ReasonMismatch)
)

func errStoreUnavailable(err error) error {
	return goerror.NewUnavailable(err, "Verification store unavailable", ReasonStoreUnavailable)
}
