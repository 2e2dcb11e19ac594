package sandbox

import (
	"os"
	"time"

	units "github.com/docker/go-units"
	"github.com/rs/zerolog/log"
)

// Config holds the executor's resource limits.
type Config struct {
	CallTimeout time.Duration // per tool call (0 = DefaultCallTimeout)
	MaxOutput   int64         // per tool result, in bytes (0 = DefaultMaxOutput)
}

const (
	DefaultCallTimeout = 30 * time.Second
	DefaultMaxOutput   = 256 * 1024
)

// DefaultConfig builds the configuration from environment variables.
// CURIO_TOOL_TIMEOUT is a duration ("45s"); CURIO_MAX_TOOL_OUTPUT is a
// human-readable size ("256kb", "1mb"). Invalid values fall back to the
// defaults with a warning.
func DefaultConfig() Config {
	cfg := Config{
		CallTimeout: DefaultCallTimeout,
		MaxOutput:   DefaultMaxOutput,
	}

	if v := os.Getenv("CURIO_TOOL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CallTimeout = d
		} else {
			log.Warn().Str("value", v).Msg("invalid CURIO_TOOL_TIMEOUT, using default")
		}
	}

	if v := os.Getenv("CURIO_MAX_TOOL_OUTPUT"); v != "" {
		if n, err := units.RAMInBytes(v); err == nil && n > 0 {
			cfg.MaxOutput = n
		} else {
			log.Warn().Str("value", v).Msg("invalid CURIO_MAX_TOOL_OUTPUT, using default")
		}
	}

	return cfg
}

func (c Config) callTimeout() time.Duration {
	if c.CallTimeout > 0 {
		return c.CallTimeout
	}
	return DefaultCallTimeout
}

func (c Config) maxOutput() int64 {
	if c.MaxOutput > 0 {
		return c.MaxOutput
	}
	return DefaultMaxOutput
}
