package config

import (
	"fmt"
	"os"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"gopkg.in/yaml.v3"
)

type presetsFile struct {
	Presets map[string]models.DraftSettings `yaml:"presets"`
}

// LoadPresets reads named draft settings from a YAML file. An empty path yields no presets.
func LoadPresets(path string) (map[string]models.DraftSettings, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates a presets document.
func ParsePresets(data []byte) (map[string]models.DraftSettings, error) {
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	for name, s := range file.Presets {
		if s.Rounds < 1 {
			return nil, fmt.Errorf("preset %q: rounds must be at least 1", name)
		}
		if s.TimePerPickMs <= 0 {
			return nil, fmt.Errorf("preset %q: time_per_pick_ms must be positive", name)
		}
		if s.AutoPickDelayMs < 0 {
			return nil, fmt.Errorf("preset %q: auto_pick_delay_ms must not be negative", name)
		}
		for _, slot := range s.RosterSlots {
			if slot.Count < 1 || len(slot.Eligible) == 0 {
				return nil, fmt.Errorf("preset %q: roster slot %q needs a count and eligible positions", name, slot.Name)
			}
		}
	}
	return file.Presets, nil
}
