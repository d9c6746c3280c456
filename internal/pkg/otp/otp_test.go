package otp

import (
	"regexp"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestRandomHOTP_Generate(t *testing.T) {
	gen := NewRandomHOTP(otp.DigitsSix)

	seen := make(map[string]struct{})
	for range 200 {
		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
		seen[code] = struct{}{}
	}

	// 200 draws over a million values; a handful of collisions is possible, a constant is not.
	assert.Greater(t, len(seen), 190)
}

func TestNewRandomHOTP_FallsBackToSixDigits(t *testing.T) {
	code, err := NewRandomHOTP(otp.Digits(7)).Generate()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
