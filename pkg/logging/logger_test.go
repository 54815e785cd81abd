package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&Config{
		Level:       level,
		ServiceName: "scanner-service",
		Environment: "test",
		Version:     "1.2.3",
		Output:      &buf,
	}), &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLogger_BaseAttributes(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.Info("hello")

	entry := lastEntry(t, buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "scanner-service", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestLogger_Level(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Equal(t, "kept", lastEntry(t, buf)["msg"])
}

func TestLogger_With(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	logger.WithSession("s-1", "op-1").
		WithComponent("session").
		WithError(errors.New("boom")).
		Info("scan")

	entry := lastEntry(t, buf)
	assert.Equal(t, "s-1", entry["sessionId"])
	assert.Equal(t, "op-1", entry["operationId"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "boom", entry["error"])

	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithSessionID(ctx, "s-9")
	logger.WithContext(ctx).Info("request")

	entry := lastEntry(t, buf)
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "corr-1", entry["correlationId"])
	assert.Equal(t, "s-9", entry["sessionId"])

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestLogger_LogBusinessEvent(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.LogBusinessEvent(context.Background(), BusinessEvent{
		EventType:  "scan.resolved",
		EntityType: "picking",
		EntityID:   "op-1",
		Action:     "success",
		RelatedIDs: map[string]string{"barcode": "PROD-1"},
	})

	entry := lastEntry(t, buf)
	assert.Equal(t, "Business event", entry["msg"])
	assert.Equal(t, "scan.resolved", entry["eventType"])
	assert.Equal(t, "op-1", entry["entityId"])
	assert.Equal(t, "PROD-1", entry["barcode"])
}

func TestLogger_DatabaseQuery(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.DatabaseQuery(context.Background(), "planned_lines", "find", 5*time.Millisecond, true, 0)
	assert.Empty(t, buf.String(), "successful queries log at debug")

	logger.DatabaseQuery(context.Background(), "planned_lines", "find", 5*time.Millisecond, false, 0)
	entry := lastEntry(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "planned_lines", entry["collection"])
}
