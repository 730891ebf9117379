// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// AffiliateIDKey is the context key for affiliate ID
	AffiliateIDKey contextKey = "affiliate_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if affiliateID, ok := ctx.Value(AffiliateIDKey).(string); ok && affiliateID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("affiliate_id", affiliateID))}
	}

	return newLogger
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// CommissionCreated logs a new commission ledger entry.
func (l *Logger) CommissionCreated(conversionID, affiliateID string, amountCents int64) {
	l.Info("commission_created",
		slog.String("conversion_id", conversionID),
		slog.String("affiliate_id", affiliateID),
		slog.Int64("amount_cents", amountCents),
	)
}

// DuplicateSuppressed logs a suppressed duplicate conversion attempt.
// The triggering business event still succeeds; this is the only trace.
func (l *Logger) DuplicateSuppressed(appointmentID, affiliateID string) {
	l.Warn("duplicate_conversion_suppressed",
		slog.String("appointment_id", appointmentID),
		slog.String("affiliate_id", affiliateID),
	)
}

// AssignmentSkipped logs an appointment left unassigned because no eligible
// closer was available. Picked up later by the reconciliation sweep.
func (l *Logger) AssignmentSkipped(appointmentID string) {
	l.Warn("closer_assignment_skipped",
		slog.String("appointment_id", appointmentID),
		slog.String("reason", "no eligible closer"),
	)
}

// SettingFallback logs a missing or unparsable setting that degraded to its default.
func (l *Logger) SettingFallback(key string, fallback any) {
	l.Warn("setting_fallback",
		slog.String("key", key),
		slog.Any("default", fallback),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
