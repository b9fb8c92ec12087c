// Package logging provides structured logging for the access layer.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

// Context keys for request-scoped identifiers.
const (
	TraceIDKey   contextKey = "trace_id"
	SessionIDKey contextKey = "session_id"
	UserIDKey    contextKey = "user_id"
)

// Config controls logger construction.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output string // stdout, stderr
}

// Logger wraps a logrus entry with context-aware field helpers.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger from the given configuration.
func New(cfg Config) *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	base.SetOutput(outputWriter(cfg.Output))

	return &Logger{entry: logrus.NewEntry(base)}
}

// NewDefault creates an info-level JSON logger tagged with a component name.
func NewDefault(component string) *Logger {
	return New(Config{Level: "info"}).WithField("component", component)
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithContext returns a logger carrying the trace, session and user
// identifiers found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	entry := l.entry
	if id := GetTraceID(ctx); id != "" {
		entry = entry.WithField("trace_id", id)
	}
	if id := GetSessionID(ctx); id != "" {
		entry = entry.WithField("session_id", id)
	}
	if id := GetUserID(ctx); id != "" {
		entry = entry.WithField("user_id", id)
	}
	return &Logger{entry: entry}
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in the context, if any.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// WithSessionID stores an identity session ID in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID returns the identity session ID stored in the context, if any.
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, SessionIDKey)
}

// WithUserID stores a principal ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the principal ID stored in the context, if any.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
