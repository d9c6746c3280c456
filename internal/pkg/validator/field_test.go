package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldKey(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"Email":       "email",
		"DisplayName": "display_name",
		"HTTPTimeout": "http_timeout",
		"DynamoTable": "dynamo_table",
		"HMAC":        "hmac",
		"Code2FA":     "code2_fa",
	}

	for in, want := range tests {
		assert.Equal(t, want, fieldKey(in), in)
	}
}
