package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned by Hash when no key was configured.
var ErrEmptySecret = errors.New("hash: hmac secret is empty")

// HMACSHA256 digests secrets with a server-side key and hex-encodes the result.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a hasher keyed by secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the 64-character hex digest of str.
func (h *HMACSHA256) Hash(str string) ([]byte, error) {
	if len(h.key) == 0 {
		return nil, ErrEmptySecret
	}
	return h.sum(str), nil
}

// Verify reports whether str digests to hashed, in constant time.
func (h *HMACSHA256) Verify(hashed, str string) bool {
	if len(h.key) == 0 {
		return false
	}
	return hmac.Equal([]byte(hashed), h.sum(str))
}

func (h *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(str))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
