package providers

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultGenerateTimeout bounds one model call. Callers wrap their context
// with this before invoking Generate so a stalled backend can never hold a
// query loop open.
const DefaultGenerateTimeout = 60 * time.Second

// GenerateTimeout reads the per-call model timeout from CURIO_MODEL_TIMEOUT
// (a duration string, "45s"). Invalid values fall back to the default with
// a warning.
func GenerateTimeout() time.Duration {
	v := os.Getenv("CURIO_MODEL_TIMEOUT")
	if v == "" {
		return DefaultGenerateTimeout
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("value", v).Msg("invalid CURIO_MODEL_TIMEOUT, using default")
		return DefaultGenerateTimeout
	}
	return d
}
