package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogger() (*SecurityLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	return NewSecurityLoggerWithHandler(handler), &buf
}

func TestInvalidOrigin_LogsOriginAndIP(t *testing.T) {
	secLog, buf := captureLogger()

	secLog.InvalidOrigin("203.0.113.9:4412", "http://evil.example.com")

	logged := buf.String()
	assert.Contains(t, logged, "invalid_origin")
	assert.Contains(t, logged, "203.0.113.9:4412")
	assert.Contains(t, logged, "http://evil.example.com")
}

func TestAuthFailure_NeverLogsCredentials(t *testing.T) {
	secLog, buf := captureLogger()

	secLog.AuthFailure("alice@example.com", "imap.example.com", "LOGIN failed")

	logged := buf.String()
	assert.Contains(t, logged, "auth_failure")
	assert.Contains(t, logged, "alice@example.com")
	assert.Contains(t, logged, "imap.example.com")
	assert.NotContains(t, logged, "password")
}

func TestSecurityEvent_FiltersSensitiveKeys(t *testing.T) {
	secLog, buf := captureLogger()

	secLog.SecurityEvent("suspicious", "203.0.113.9", map[string]string{
		"path":     "/api/emails",
		"password": "hunter2",
		"token":    "abc123",
	})

	logged := buf.String()
	assert.Contains(t, logged, "suspicious")
	assert.Contains(t, logged, "/api/emails")
	assert.NotContains(t, logged, "hunter2")
	assert.NotContains(t, logged, "abc123")
}
