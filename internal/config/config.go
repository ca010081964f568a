// Package config loads the plugin settings that shape chat requests: the
// selected model, the default system prompt, and the editor identifiers
// sent with every API call.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the plugin configuration. All fields have working
// defaults; a missing settings file is not an error.
type Settings struct {
	// Model is the currently selected chat model ID. Empty means the
	// built-in default model.
	Model string `yaml:"model"`
	// SystemPrompt is the plugin-wide default system prompt, used when a
	// call provides none. Empty means no system message is injected.
	SystemPrompt string `yaml:"system_prompt"`
	// EditorVersion identifies the host editor (e.g. "vscode/1.99.2").
	EditorVersion string `yaml:"editor_version"`
	// EditorPluginVersion identifies the plugin (e.g. "copilot-chat/0.26.3").
	EditorPluginVersion string `yaml:"editor_plugin_version"`
	// VaultPath overrides the default credential file location.
	VaultPath string `yaml:"vault_path"`
}

// Load reads settings from the YAML file at path and applies environment
// overrides. A missing file yields the defaults; a malformed file is an
// error.
func Load(path string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment only.
	case err != nil:
		return Settings{}, fmt.Errorf("read settings file %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse settings file %q: %w", path, err)
		}
	}

	s.applyEnv()
	return s, nil
}

// FromEnv returns settings built from environment variables alone.
func FromEnv() Settings {
	var s Settings
	s.applyEnv()
	return s
}

func (s *Settings) applyEnv() {
	s.Model = envOverride("COPILOT_MODEL", s.Model)
	s.SystemPrompt = envOverride("COPILOT_SYSTEM_PROMPT", s.SystemPrompt)
	s.EditorVersion = envOverride("EDITOR_VERSION", s.EditorVersion)
	s.EditorPluginVersion = envOverride("EDITOR_PLUGIN_VERSION", s.EditorPluginVersion)
	s.VaultPath = envOverride("COPILOT_VAULT_PATH", s.VaultPath)
}

func envOverride(name, current string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return current
}
