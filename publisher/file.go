package publisher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the structure of a standalone publisher configuration file.
type File struct {
	Rules      *Rules            `yaml:"rules,omitempty"`
	Publishers map[string]Config `yaml:"publishers"`
}

// LoadFile reads publisher configuration from a YAML file. Rules are nil
// when the file does not set them.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read publisher file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse publisher file: %w", err)
	}

	return &f, nil
}
