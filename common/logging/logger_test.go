package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-systems/parley-stack/common/middleware"
)

func newCaptureLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(buf, nil))}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newCaptureLogger(&buf)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	log.InfoContext(ctx, "hello", "key", "value")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "value", entry["key"])
}

func TestWithContextNoRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newCaptureLogger(&buf)

	log.InfoContext(context.Background(), "hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, present := entry["request_id"]
	assert.False(t, present)
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := newCaptureLogger(&buf).With("service", "hub")

	log.Info("started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hub", entry["service"])
}
