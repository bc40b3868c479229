package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger and installs it as the zerolog global.
// level may be "trace", "debug", "info", "warn" or "error" (default "info").
// format "console" is only honoured when stderr is a terminal; otherwise JSON is written.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stderr, level, format, isatty.IsTerminal(os.Stderr.Fd()))
}

// New builds a logger writing to w
func New(w io.Writer, level, format string, terminal bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if strings.ToLower(format) == "console" && terminal {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
