// Package logging builds the process logger: an slog text handler on stdout,
// optionally duplicated into a rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Params configures New.
type Params struct {
	File  string
	Level string
}

// New returns the logger and a close func for the file sink. When File is
// empty logs go only to stdout.
func New(p Params) (*slog.Logger, func() error) {
	return newLogger(os.Stdout, p)
}

func newLogger(stdout io.Writer, p Params) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(p.Level)}
	if p.File == "" {
		return slog.New(slog.NewTextHandler(stdout, opts)), func() error { return nil }
	}

	file := &lumberjack.Logger{
		Filename:   p.File,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		Compress:   true,
	}
	return slog.New(slog.NewTextHandler(io.MultiWriter(stdout, file), opts)), file.Close
}

// ParseLevel maps a config level name to an slog level. Unknown names log at info.
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
