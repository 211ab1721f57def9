package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithAttr(slog.String("service", "treelai")))

	ctx := WithRequestID(context.Background(), "req-1")
	logger.InfoContext(ctx, "document translated", "total_leaves", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "document translated", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "treelai", rec["service"])
	assert.EqualValues(t, 3, rec["total_leaves"])
}

func TestNew_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithFormat(FormatText), WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.b")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"))
	assert.Contains(t, out, "path=a.b")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestRequestID_Missing(t *testing.T) {
	_, ok := RequestID(context.Background())
	assert.False(t, ok)
}
