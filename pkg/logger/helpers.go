package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs an HTTP exchange at a level chosen from its status code
func LogRequest(l Logger, method, url string, statusCode int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.WarnWithFields("HTTP request client error", fields)
	}
}

// LogDownload logs the outcome of one media file
func LogDownload(l Logger, album, file string, bytes int64, skipped bool, err error) {
	log := l.WithFields(map[string]interface{}{
		"album": album,
		"file":  file,
		"bytes": bytes,
	})

	switch {
	case err != nil:
		log.WithError(err).Error("Download failed")
	case skipped:
		log.Debug("Download skipped, file already present")
	default:
		log.Info("Download completed")
	}
}

// LogStateTransition logs an album moving between pipeline stages
func LogStateTransition(l Logger, album, from, to string) {
	l.WithFields(map[string]interface{}{
		"album": album,
		"from":  from,
		"to":    to,
	}).Debug("Album state changed")
}

// LogWait logs a deliberate pause such as a retry backoff or cooldown
func LogWait(l Logger, reason string, d time.Duration) {
	l.WithFields(map[string]interface{}{
		"reason": reason,
		"wait":   d,
	}).Debug("Waiting")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
