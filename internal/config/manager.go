// Package config carries the two configuration surfaces: persistent user
// preferences in a JSON file, and runtime knobs from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preferences holds the user's persistent choices. Runtime knobs live in
// Settings; this file is only for things worth remembering across sessions.
type Preferences struct {
	Provider string `json:"provider,omitempty"` // openai, anthropic, ollama, lmstudio
	APIKey   string `json:"api_key,omitempty"`  // key for the selected provider
	Model    string `json:"model,omitempty"`    // model name override
	BaseURL  string `json:"base_url,omitempty"` // API base URL override
	DocsDir  string `json:"docs_dir,omitempty"` // default documentation corpus

	StepBudget int `json:"step_budget,omitempty"` // iterations per query; 0 = default
}

// Manager loads and saves the preferences file.
type Manager struct {
	configDir string
}

// NewManager resolves the per-user config directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "curio")}, nil
}

// Path returns the absolute path of the preferences file.
func (m *Manager) Path() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the preferences from disk. A missing file is not an error; it
// yields empty preferences.
func (m *Manager) Load() (*Preferences, error) {
	path := m.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Preferences{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &prefs, nil
}

// Save writes the preferences with owner-only permissions, since the file
// may hold an API key.
func (m *Manager) Save(prefs *Preferences) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Exists reports whether the preferences file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return !os.IsNotExist(err)
}
