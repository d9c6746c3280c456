// Package uid generates identifiers used for request correlation and for
// tagging outgoing messages.
package uid

import "github.com/google/uuid"

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// UUID produces time-ordered version 7 UUIDs for correlation IDs.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID { return &UUID{} }

// Generate returns a v7 UUID, or a random v4 when the v7 clock source fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
