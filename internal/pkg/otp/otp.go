package otp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Generator produces one-time passcodes.
type Generator interface {
	// Generate returns a new code made of ASCII digits.
	Generate() (string, error)
}

// RandomHOTP computes codes with the RFC 4226 truncation over a random key
// and a random counter, both drawn per call.
type RandomHOTP struct {
	digits otp.Digits
}

// NewRandomHOTP constructs a RandomHOTP.
//
// If digits is not 6 or 8, it falls back to 6 digits.
func NewRandomHOTP(digits otp.Digits) *RandomHOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &RandomHOTP{digits: digits}
}

// Generate returns a new code.
func (g *RandomHOTP) Generate() (string, error) {
	var buf [28]byte // 20 bytes key (RFC 4226 recommendation) + 8 bytes counter
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:20])
	counter := binary.BigEndian.Uint64(buf[20:])

	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
