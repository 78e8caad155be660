// Package logger builds the process logger. zap is the backend; library code
// logs through log/slog, which is bridged onto the same zap core.
package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger writing to stderr. stdout stays free for the MCP
// stdio transport and for CLI output.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}

// Slog returns a slog.Logger backed by z's core.
func Slog(z *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(z.Core(), zapslog.WithCaller(true)))
}

// Setup builds both loggers and installs the slog one as the process default.
func Setup(json bool, debug bool) (*zap.Logger, *slog.Logger, error) {
	z, err := New(json, debug)
	if err != nil {
		return nil, nil, err
	}
	s := Slog(z)
	slog.SetDefault(s)
	return z, s, nil
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
