// package shared defines shared helpers
package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// OpenLogFile returns a size-rotated log file described by cfg.
func OpenLogFile(cfg LogConfig) (io.WriteCloser, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("%w: log file path is empty", ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}, nil
}

// NewFileLogger creates a [log.Logger] writing to a size-rotated file described by cfg.
func NewFileLogger(cfg LogConfig) (*log.Logger, error) {
	rotator, err := OpenLogFile(cfg)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(rotator)
	if cfg.Level != "" {
		if err := SetLogLevelString(logger, cfg.Level); err != nil {
			return nil, err
		}
	}
	return logger, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// SetLogLevelString parses a level name ("debug", "info", ...) and applies it.
func SetLogLevelString(l *log.Logger, level string) error {
	ll, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	SetLogLevel(l, ll)
	return nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// VisibilityString returns "Public" or "Private".
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// MaskSecret keeps the first and last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
