// Package logging provides structured logging for pharmatools, wrapping
// log/slog with a shared console+file handler and global helper functions.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SetupLogger builds an slog.Logger writing to stdout and, when logDir is
// non-empty, to a dated log file inside logDir. File open failures fall back
// to console-only logging rather than aborting startup.
func SetupLogger(logDir string, level string) *slog.Logger {
	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0750); err != nil {
			slog.Warn("Failed to create log directory, logging to console only", "dir", logDir, "error", err)
		} else {
			logPath := filepath.Join(logDir, "app-"+time.Now().Format("2006-01-02")+".log")
			file, err := os.OpenFile(filepath.Clean(logPath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err != nil {
				slog.Warn("Failed to open log file, logging to console only", "path", logPath, "error", err)
			} else {
				writers = append(writers, file)
			}
		}
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return slog.New(handler)
}

// ParseLevel converts a config log level string to a slog.Level.
// Unknown values default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
