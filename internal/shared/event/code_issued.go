package event

import "time"

const CodeIssuedDestination string = "verification.email.issued"

// CodeIssuedMessage never carries the code itself.
type CodeIssuedMessage struct {
	EventID      string    `json:"event_id"`
	Email        string    `json:"email"`
	Provider     string    `json:"provider"`
	Delivered    bool      `json:"delivered"`
	FallbackUsed bool      `json:"fallback_used"`
	ExpiresAt    time.Time `json:"expires_at"`
}
