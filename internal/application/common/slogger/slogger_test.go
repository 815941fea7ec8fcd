package slogger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"evalops/internal/application/common/logging"

	"github.com/stretchr/testify/assert"
)

// recordingLogger captures emitted messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingLogger) record(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingLogger) Debug(_ context.Context, message string, _ logging.Fields) { r.record(message) }
func (r *recordingLogger) Info(_ context.Context, message string, _ logging.Fields)  { r.record(message) }
func (r *recordingLogger) Warn(_ context.Context, message string, _ logging.Fields)  { r.record(message) }
func (r *recordingLogger) Error(_ context.Context, message string, _ logging.Fields) { r.record(message) }

func (r *recordingLogger) ErrorWithError(_ context.Context, _ error, message string, _ logging.Fields) {
	r.record(message)
}

func (r *recordingLogger) LogPerformance(_ context.Context, operation string, _ time.Duration, _ logging.Fields) {
	r.record(operation)
}

func (r *recordingLogger) WithComponent(_ string) logging.ApplicationLogger { return r }

func TestGlobalLoggerOverride(t *testing.T) {
	ctx := context.Background()
	recorder := &recordingLogger{}

	SetGlobalLogger(recorder)
	t.Cleanup(func() { SetGlobalLogger(nil) })

	Debug(ctx, "d", nil)
	Info(ctx, "i", nil)
	Warn(ctx, "w", nil)
	Error(ctx, "e", nil)
	ErrorWithError(ctx, errors.New("boom"), "ee", nil)

	assert.Equal(t, []string{"d", "i", "w", "e", "ee"}, recorder.messages)
}

func TestField(t *testing.T) {
	fields := Field("file", "a.eval.ts")

	assert.Equal(t, Fields{"file": "a.eval.ts"}, fields)
}
