// Package config exposes typed, read-only access to service settings.
//
// Keys are dotted paths (modules.verification.code_ttl_seconds). Any key can
// be overridden by the matching upper-snake environment variable, which is how
// provider credentials and the HMAC secret are expected to arrive.
package config

import (
	"io"
	"time"
)

// Config is the read side of the settings tree. Missing keys yield zero values;
// callers apply their own defaults.
type Config interface {
	io.Closer

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetBool(key string) bool
	// IsSet reports whether key has a value in the file or the environment.
	IsSet(key string) bool
	GetString(key string) string

	// GetArray accepts either a YAML list or a comma-separated string, so
	// list settings can also be overridden from a single env var.
	GetArray(key string) []string
}
