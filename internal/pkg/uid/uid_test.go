package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	got := NewUUID().Generate()

	id, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestULID_Generate(t *testing.T) {
	gen := NewULID()

	first := gen.Generate()
	second := gen.Generate()

	_, err := ulid.ParseStrict(first)
	require.NoError(t, err)
	assert.Less(t, first, second)
}
