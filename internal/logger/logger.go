// Package logger builds the slog logger used by contigctl.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/joshuapare/contigkit/internal/config"
)

// Setup builds a text logger writing to console. When cfg.File is set,
// records are also written to that file, rotated by lumberjack.
// The returned closer releases the log file and is never nil.
func Setup(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	writer := console

	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,    // MB
			MaxBackups: cfg.MaxBackups, // number of old files
			MaxAge:     cfg.MaxAge,     // days
			Compress:   cfg.Compress,
		}
		writer = io.MultiWriter(console, fileWriter)
		closer = fileWriter
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	return slog.New(handler), closer
}

// ParseLevel maps a config level name to a slog level. Unknown and empty
// names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
