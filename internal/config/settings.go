package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Settings are the runtime knobs, read from CURIO_* environment variables.
type Settings struct {
	// Zero values defer to the engine defaults, so saved preferences can
	// still take effect when the environment is silent.
	StepBudget  int    `envconfig:"STEP_BUDGET"`
	RecallLimit int    `envconfig:"RECALL_LIMIT"`
	MemoryPath  string `envconfig:"MEMORY_PATH"` // sqlite file; empty = in-memory only
	DocsDir     string `envconfig:"DOCS_DIR"`    // documentation corpus root; empty = no doc search
	IndexPath   string `envconfig:"INDEX_PATH"`  // bleve index dir; empty = alongside DocsDir
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("curio", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
