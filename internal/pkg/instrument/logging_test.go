package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))

	ctx := SetCorrelationID(context.Background(), "c-1")
	assert.Equal(t, "c-1", GetCorrelationID(ctx))
}

func TestInitLogging_MasksAndTags(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	initLogging(&buf, &Config{ServiceName: "verification", MaskFields: []string{"Code", "api_key"}, LogLevel: "debug"}, nil)

	ctx := SetCorrelationID(context.Background(), "c-42")
	slog.DebugContext(ctx, "issued",
		"email", "a@example.com",
		"code", "123456",
		"body", `{"email":"a@example.com","code":"654321"}`,
		"cfg", map[string]any{"api_key": "secret"},
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "issued", line["msg"])
	assert.Equal(t, "DEBUG", line["severity"])
	assert.Equal(t, "c-42", line["_cID"])
	assert.Equal(t, "verification", line["service"])
	assert.Equal(t, "a@example.com", line["email"])
	assert.Equal(t, "***", line["code"])
	assert.NotContains(t, line["body"], "654321")
	assert.Equal(t, map[string]any{"api_key": "***"}, line["cfg"])
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ins, err := New(context.Background(), &Config{Enabled: false, ServiceName: "verification"})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 0.25, clampRatio(0.25))
	assert.Equal(t, 1.0, clampRatio(3))
}

func TestInitLogging_DefaultMaskAndWith(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	initLogging(&buf, &Config{ServiceName: "verification"}, nil)

	slog.Default().With("code", "111222").Info("bound", "authorization", "Bearer x")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "***", line["code"])
	assert.Equal(t, "***", line["authorization"])
	assert.Equal(t, "verification", line["service"])
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go:")
}
