package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// ApplicationLogger defines the interface for structured application logging.
type ApplicationLogger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)
	ErrorWithError(ctx context.Context, err error, message string, fields Fields)
	LogPerformance(ctx context.Context, operation string, duration time.Duration, fields Fields)
	WithComponent(component string) ApplicationLogger
}

// Fields represents structured logging fields.
type Fields map[string]interface{}

// Config represents logger configuration.
type Config struct {
	Level  string
	Format string // json, text
	Output string // stdout, stderr, buffer (for testing)
}

// Log levels ordered by severity.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// LogEntry represents the structure of emitted log entries.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// applicationLoggerImpl implements ApplicationLogger.
type applicationLoggerImpl struct {
	config    Config
	component string
	minLevel  int
	buffer    *bytes.Buffer // For testing
	logger    *log.Logger
}

// NewApplicationLogger creates a structured logger from configuration.
func NewApplicationLogger(config Config) (ApplicationLogger, error) {
	minLevel, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	impl := &applicationLoggerImpl{
		config:   config,
		minLevel: minLevel,
	}

	switch strings.ToLower(config.Output) {
	case "", "stdout":
		impl.logger = log.New(os.Stdout, "", 0)
	case "stderr":
		impl.logger = log.New(os.Stderr, "", 0)
	case "buffer":
		impl.buffer = &bytes.Buffer{}
		impl.logger = log.New(impl.buffer, "", 0)
	default:
		return nil, fmt.Errorf("unsupported log output: %s", config.Output)
	}

	return impl, nil
}

// parseLevel converts a level string to its numeric severity.
func parseLevel(level string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "INFO":
		return levelInfo, nil
	case "DEBUG":
		return levelDebug, nil
	case "WARN", "WARNING":
		return levelWarn, nil
	case "ERROR":
		return levelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level: %s", level)
	}
}

func levelName(level int) string {
	switch level {
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return "INFO"
	case levelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Debug logs a debug message with structured fields.
func (l *applicationLoggerImpl) Debug(ctx context.Context, message string, fields Fields) {
	l.emit(ctx, levelDebug, message, "", fields)
}

// Info logs an info message with structured fields.
func (l *applicationLoggerImpl) Info(ctx context.Context, message string, fields Fields) {
	l.emit(ctx, levelInfo, message, "", fields)
}

// Warn logs a warning message with structured fields.
func (l *applicationLoggerImpl) Warn(ctx context.Context, message string, fields Fields) {
	l.emit(ctx, levelWarn, message, "", fields)
}

// Error logs an error message with structured fields.
func (l *applicationLoggerImpl) Error(ctx context.Context, message string, fields Fields) {
	l.emit(ctx, levelError, message, "", fields)
}

// ErrorWithError logs an error message carrying the error object.
func (l *applicationLoggerImpl) ErrorWithError(ctx context.Context, err error, message string, fields Fields) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	l.emit(ctx, levelError, message, errText, fields)
}

// LogPerformance logs an operation's duration at info level.
func (l *applicationLoggerImpl) LogPerformance(
	ctx context.Context,
	operation string,
	duration time.Duration,
	fields Fields,
) {
	merged := Fields{"operation": operation, "duration_ms": duration.Milliseconds()}
	for k, v := range fields {
		merged[k] = v
	}
	l.emit(ctx, levelInfo, "operation completed", "", merged)
}

// WithComponent returns a logger that tags every entry with a component name.
func (l *applicationLoggerImpl) WithComponent(component string) ApplicationLogger {
	clone := *l
	clone.component = component
	return &clone
}

// Buffer exposes captured output for the buffer output mode. Nil otherwise.
func (l *applicationLoggerImpl) Buffer() *bytes.Buffer {
	return l.buffer
}

// emit serializes and writes one log entry if it passes the level filter.
func (l *applicationLoggerImpl) emit(_ context.Context, level int, message, errText string, fields Fields) {
	if level < l.minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelName(level),
		Message:   message,
		Component: l.component,
		Error:     errText,
	}
	if len(fields) > 0 {
		entry.Metadata = fields
	}

	if strings.EqualFold(l.config.Format, "text") {
		l.logger.Print(formatTextEntry(entry))
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf(`{"level":"ERROR","message":"failed to marshal log entry: %s"}`, err)
		return
	}
	l.logger.Print(string(data))
}

// formatTextEntry renders an entry as a single human-readable line.
func formatTextEntry(entry LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp)
	sb.WriteString(" [")
	sb.WriteString(entry.Level)
	sb.WriteString("] ")
	if entry.Component != "" {
		sb.WriteString(entry.Component)
		sb.WriteString(": ")
	}
	sb.WriteString(entry.Message)
	if entry.Error != "" {
		sb.WriteString(" error=")
		sb.WriteString(entry.Error)
	}
	for k, v := range entry.Metadata {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	return sb.String()
}
