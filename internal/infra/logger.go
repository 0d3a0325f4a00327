package infra

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new slog.Logger with log rotation support
func NewLogger(cfg *Config) *slog.Logger {
	// Create logs directory if not exists
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to stderr if directory creation fails
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	// Setup lumberjack logger for file rotation
	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    10,   // Megabytes
		MaxBackups: 3,    // Number of backups
		MaxAge:     28,   // Days
		Compress:   true,
	}

	// Multi-writer: Log to both file and stdout
	writer := io.MultiWriter(os.Stdout, fileLogger)

	// Determine log level
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(writer, opts))
}

// secretKeys are payload/config field names whose values must never reach a
// log line or the audit journal.
var secretKeys = map[string]bool{
	"key":                 true,
	"secret":              true,
	"token":               true,
	"client_secret":       true,
	"webhook_key":         true,
	"selftest_token":      true,
	"alpaca_secret_key":   true,
	"apca_api_secret_key": true,
}

// IsSecretKey reports whether a field name is secret-shaped.
func IsSecretKey(name string) bool {
	return secretKeys[strings.ToLower(name)]
}

// MaskSecrets returns a copy of the payload with secret-shaped values
// replaced by "***". Nested structures are not descended into; the webhook
// payload is flat.
func MaskSecrets(payload map[string]any) map[string]any {
	masked := make(map[string]any, len(payload))
	for k, v := range payload {
		if IsSecretKey(k) {
			masked[k] = "***"
		} else {
			masked[k] = v
		}
	}
	return masked
}
