// Package logging builds the zerolog loggers used across the bridge.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects level and output format
type Config struct {
	App    string
	Level  string
	Format string
}

// New builds a logger writing to stderr and installs it as the global
// zerolog logger.
func New(cfg Config) zerolog.Logger {
	logger := NewWithWriter(cfg, os.Stderr)
	log.Logger = logger
	return logger
}

// NewWithWriter builds a logger writing to w
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	if strings.ToLower(strings.TrimSpace(cfg.Format)) != FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, _ := ParseLevel(cfg.Level)
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.App != "" {
		ctx = ctx.Str("app", cfg.App)
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown or empty
// names give InfoLevel and false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zerolog.InfoLevel, false
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return level, true
}
