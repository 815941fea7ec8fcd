package logging

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferLogger creates a buffer-backed logger and returns it with its
// concrete type for output inspection.
func newBufferLogger(t *testing.T, level, format string) *applicationLoggerImpl {
	t.Helper()
	logger, err := NewApplicationLogger(Config{Level: level, Format: format, Output: "buffer"})
	require.NoError(t, err)

	impl, ok := logger.(*applicationLoggerImpl)
	require.True(t, ok)
	return impl
}

// decodeEntries parses every JSON line in the buffer.
func decodeEntries(t *testing.T, impl *applicationLoggerImpl) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(impl.Buffer().String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewApplicationLogger(t *testing.T) {
	t.Run("should reject unknown levels and outputs", func(t *testing.T) {
		_, err := NewApplicationLogger(Config{Level: "verbose"})
		assert.Error(t, err)

		_, err = NewApplicationLogger(Config{Output: "syslog"})
		assert.Error(t, err)
	})

	t.Run("should default level and output", func(t *testing.T) {
		_, err := NewApplicationLogger(Config{})
		assert.NoError(t, err)
	})
}

func TestApplicationLoggerEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("should emit structured JSON entries", func(t *testing.T) {
		impl := newBufferLogger(t, "debug", "json")

		impl.Info(ctx, "discovery started", Fields{"files": 3})

		entries := decodeEntries(t, impl)
		require.Len(t, entries, 1)
		assert.Equal(t, "INFO", entries[0].Level)
		assert.Equal(t, "discovery started", entries[0].Message)
		assert.InDelta(t, 3.0, entries[0].Metadata["files"], 1e-9)
		assert.NotEmpty(t, entries[0].Timestamp)
	})

	t.Run("should filter entries below the minimum level", func(t *testing.T) {
		impl := newBufferLogger(t, "warn", "json")

		impl.Debug(ctx, "dropped", nil)
		impl.Info(ctx, "dropped too", nil)
		impl.Warn(ctx, "kept", nil)
		impl.Error(ctx, "kept too", nil)

		entries := decodeEntries(t, impl)
		require.Len(t, entries, 2)
		assert.Equal(t, "WARN", entries[0].Level)
		assert.Equal(t, "ERROR", entries[1].Level)
	})

	t.Run("should carry the error text in ErrorWithError", func(t *testing.T) {
		impl := newBufferLogger(t, "info", "json")

		impl.ErrorWithError(ctx, errors.New("boom"), "upload failed", nil)

		entries := decodeEntries(t, impl)
		require.Len(t, entries, 1)
		assert.Equal(t, "boom", entries[0].Error)
	})

	t.Run("should tag entries with the component name", func(t *testing.T) {
		impl := newBufferLogger(t, "info", "json")

		impl.WithComponent("discovery").Info(ctx, "scoped", nil)

		entries := decodeEntries(t, impl)
		require.Len(t, entries, 1)
		assert.Equal(t, "discovery", entries[0].Component)
	})

	t.Run("should log performance entries with duration metadata", func(t *testing.T) {
		impl := newBufferLogger(t, "info", "json")

		impl.LogPerformance(ctx, "scan", 1500*time.Millisecond, Fields{"files": 2})

		entries := decodeEntries(t, impl)
		require.Len(t, entries, 1)
		assert.Equal(t, "scan", entries[0].Metadata["operation"])
		assert.InDelta(t, 1500.0, entries[0].Metadata["duration_ms"], 1e-9)
	})

	t.Run("should render text format with level and message", func(t *testing.T) {
		impl := newBufferLogger(t, "info", "text")

		impl.WithComponent("upload").Info(ctx, "batch sent", Fields{"size": 10})

		line := impl.Buffer().String()
		assert.Contains(t, line, "[INFO]")
		assert.Contains(t, line, "upload: batch sent")
		assert.Contains(t, line, "size=10")
	})
}
