package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogLevel is the severity of an engine log line.
type LogLevel int

const (
	// LogLevelDebug traces single items and vetoed operations.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo marks the drive loop starting and finishing, and destruction.
	LogLevelInfo
	// LogLevelWarn reports cancellation and failing filters.
	LogLevelWarn
	// LogLevelError reports listener panics and source errors.
	LogLevelError
)

// String returns the upper-case level name used by ParseLogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a level name such as "debug" or "WARN" to a LogLevel.
// The empty string means LogLevelInfo.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO", "":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SlogLevel returns the matching log/slog level.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger receives the lines a Batch writes about itself. Every line starts
// with "Batch <id>:" so several batches can share one Logger. Format and args
// follow fmt.Sprintf.
type Logger interface {
	// Log writes one line at level.
	Log(level LogLevel, format string, args ...any)

	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// NoOpLogger drops everything. Options.Logger defaults to it.
type NoOpLogger struct{}

// Log discards the line.
func (*NoOpLogger) Log(LogLevel, string, ...any) {}

// Debug discards the line.
func (*NoOpLogger) Debug(string, ...any) {}

// Info discards the line.
func (*NoOpLogger) Info(string, ...any) {}

// Warn discards the line.
func (*NoOpLogger) Warn(string, ...any) {}

// Error discards the line.
func (*NoOpLogger) Error(string, ...any) {}

// SlogLogger writes engine lines to a *slog.Logger. Lines are formatted
// before they reach the handler, and the handler decides which levels pass.
// Attributes attached with slog.Logger.With are kept, which is how the CLI
// tags every line with the run it belongs to.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger returns a Logger writing to l. A nil l uses slog.Default.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{L: l}
}

// Log formats the line and hands it to the slog handler if it is enabled
// for level.
func (s *SlogLogger) Log(level LogLevel, format string, args ...any) {
	lvl := level.SlogLevel()
	ctx := context.Background()
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.Log(ctx, lvl, fmt.Sprintf(format, args...))
}

// Debug logs at slog.LevelDebug.
func (s *SlogLogger) Debug(format string, args ...any) { s.Log(LogLevelDebug, format, args...) }

// Info logs at slog.LevelInfo.
func (s *SlogLogger) Info(format string, args ...any) { s.Log(LogLevelInfo, format, args...) }

// Warn logs at slog.LevelWarn.
func (s *SlogLogger) Warn(format string, args ...any) { s.Log(LogLevelWarn, format, args...) }

// Error logs at slog.LevelError.
func (s *SlogLogger) Error(format string, args ...any) { s.Log(LogLevelError, format, args...) }
