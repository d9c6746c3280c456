package entity

import "time"

// Verification is the per-email verification record.
//
// At most one code is pending at a time. A verified record never carries a
// pending code.
type Verification struct {
	Email      string
	CodeHash   string
	ExpiresAt  *time.Time
	Verified   bool
	VerifiedAt *time.Time
	Delivery   DeliveryOutcome
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasPendingCode reports whether a code is outstanding, expired or not.
func (v *Verification) HasPendingCode() bool {
	return v.CodeHash != "" && v.ExpiresAt != nil
}

// Expired reports whether the pending code is past its expiry at now.
// A code is still valid at exactly its expiry instant.
func (v *Verification) Expired(now time.Time) bool {
	return v.ExpiresAt != nil && now.After(*v.ExpiresAt)
}

// PendingCode is the write issued for every new code.
type PendingCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Delivery  DeliveryOutcome
	Now       time.Time
}

// ConsumeCode marks a pending code as used, provided it is still the one that
// was compared and has not expired.
type ConsumeCode struct {
	Email    string
	CodeHash string
	Now      time.Time
}
