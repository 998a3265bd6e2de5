// Package logging provides the shared structured logger with request trace IDs.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	clientKey  contextKey = "client_protocol"
	walletKey  contextKey = "verified_wallet"
)

// Logger wraps zerolog with the context helpers used across the service.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger for the named service writing JSON to stderr.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stderr)
}

// NewWithWriter creates a logger writing to w. Used by tests.
func NewWithWriter(service string, w io.Writer) *Logger {
	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{zl: zl}
}

// SetLevel applies a global level parsed from s; unknown values keep info.
func SetLevel(s string) {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Entry is a log line under construction.
type Entry struct {
	zl zerolog.Logger
}

// WithContext binds trace ID and classifier facts from ctx to the entry.
func (l *Logger) WithContext(ctx context.Context) *Entry {
	zc := l.zl.With()
	if id := GetTraceID(ctx); id != "" {
		zc = zc.Str("trace_id", id)
	}
	if client := GetClientProtocol(ctx); client != "" {
		zc = zc.Str("client", client)
	}
	return &Entry{zl: zc.Logger()}
}

// WithError attaches err to the entry.
func (l *Logger) WithError(err error) *Entry {
	return &Entry{zl: l.zl.With().Err(err).Logger()}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{zl: e.zl.With().Err(err).Logger()}
}

// WithFields starts an entry with arbitrary fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Entry {
	return &Entry{zl: l.zl.With().Fields(fields).Logger()}
}

// WithFields attaches arbitrary fields to the entry.
func (e *Entry) WithFields(fields map[string]interface{}) *Entry {
	return &Entry{zl: e.zl.With().Fields(fields).Logger()}
}

func (e *Entry) Debug(msg string) { e.zl.Debug().Msg(msg) }
func (e *Entry) Info(msg string)  { e.zl.Info().Msg(msg) }
func (e *Entry) Warn(msg string)  { e.zl.Warn().Msg(msg) }
func (e *Entry) Error(msg string) { e.zl.Error().Msg(msg) }

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// LogRequest logs one completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).zl.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Msg("request")
}

// =============================================================================
// Context helpers
// =============================================================================

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores a trace ID in ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// GetTraceID returns the trace ID stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// WithClientProtocol stores the classifier's origin-protocol tag in ctx.
func WithClientProtocol(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// GetClientProtocol returns the origin-protocol tag stored in ctx, or "".
func GetClientProtocol(ctx context.Context) string {
	if c, ok := ctx.Value(clientKey).(string); ok {
		return c
	}
	return ""
}

// WithVerifiedWallet stores a verified wallet address in ctx.
func WithVerifiedWallet(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, walletKey, addr)
}

// GetVerifiedWallet returns the verified wallet address stored in ctx, or "".
func GetVerifiedWallet(ctx context.Context) string {
	if a, ok := ctx.Value(walletKey).(string); ok {
		return a
	}
	return ""
}
