package event

import "time"

const EmailVerifiedDestination string = "verification.email.verified"

type EmailVerifiedMessage struct {
	EventID    string    `json:"event_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}
