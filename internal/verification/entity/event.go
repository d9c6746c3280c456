package entity

import "time"

// EmailVerifiedEvent is published once an email address is verified.
type EmailVerifiedEvent struct {
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

// CodeIssuedEvent is published after each issuance, delivered or not.
type CodeIssuedEvent struct {
	Email        string    `json:"email"`
	Provider     string    `json:"provider,omitempty"`
	Delivered    bool      `json:"delivered"`
	FallbackUsed bool      `json:"fallback_used"`
	ExpiresAt    time.Time `json:"expires_at"`
}
