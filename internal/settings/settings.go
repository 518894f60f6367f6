// Package settings persists the credentials an operator configures for
// TravelBuddy: the assistant API key and the assistant identifier.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the settings file used when none is configured
const DefaultFile = "travelbuddy.yaml"

// Settings holds the operator-managed credentials
type Settings struct {
	// APIKey is the secret used for bearer authorization against the assistant API
	APIKey string `yaml:"api_key"`

	// AssistantID identifies the remote assistant definition to run
	AssistantID string `yaml:"assistant_id"`
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to path with owner-only permissions.
// The file is replaced atomically so readers never observe a partial write.
func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".travelbuddy-settings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// Merge returns a copy of s where every non-empty field of override wins
func (s Settings) Merge(override Settings) Settings {
	if override.APIKey != "" {
		s.APIKey = override.APIKey
	}
	if override.AssistantID != "" {
		s.AssistantID = override.AssistantID
	}
	return s
}

// MaskedAPIKey returns the API key with all but the last four characters hidden
func (s Settings) MaskedAPIKey() string {
	if s.APIKey == "" {
		return ""
	}
	if len(s.APIKey) <= 4 {
		return "****"
	}
	return "****" + s.APIKey[len(s.APIKey)-4:]
}
