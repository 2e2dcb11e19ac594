// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup builds the root logger. Interactive sessions get the console writer;
// anything else (piped output, service mode) gets plain JSON lines. The level
// comes from CURIO_LOG_LEVEL and defaults to info.
func Setup(interactive bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if interactive {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	level := zerolog.InfoLevel
	if v := strings.ToLower(os.Getenv("CURIO_LOG_LEVEL")); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests and optional components.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
