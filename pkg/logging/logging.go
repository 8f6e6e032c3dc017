package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// KeyError is the key for an error attribute.
	KeyError = "error"

	// KeyDal is the key for the data access layer attribute.
	KeyDal = "dal"

	// KeyGuildID is the key for a guild ID attribute.
	KeyGuildID = "guild_id"

	// KeyChannelID is the key for a channel ID attribute.
	KeyChannelID = "channel_id"

	// KeyUserID is the key for a user ID attribute.
	KeyUserID = "user_id"

	// KeyCustomID is the key for a component custom ID attribute.
	KeyCustomID = "custom_id"

	// KeyAppName is the key for the application name attribute.
	KeyAppName = "app"
)

// Name is the name of the application the logger is created for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// Name is the application name attached to every record.
	Name Name

	// Level is the minimum level that is written.
	Level slog.Level

	// File is an optional path. When set, records are also written to a rotated file.
	File string

	// Output is where records are written. Defaults to stdout.
	Output io.Writer
}

// NewConfig creates a new logging configuration with the defaults.
func NewConfig(name Name) *Config {
	return &Config{
		Name:   name,
		Level:  slog.LevelInfo,
		Output: os.Stdout,
	}
}

// CommonLogger creates the logger used across the application.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, errors.New("logging config is nil")
	}

	w := c.Output
	if w == nil {
		w = os.Stdout
	}

	if c.File != "" {
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: c.Level == slog.LevelDebug,
		Level:     c.Level,
	})

	l := slog.New(h).With(slog.String(KeyAppName, string(c.Name)))
	slog.SetDefault(l)
	return l, nil
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
