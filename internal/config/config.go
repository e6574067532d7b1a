// Package config loads the subjects file: the per-subject wiring of primary
// remote endpoints and local fallback documents.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubjectSource names where one subject's rows come from.
type SubjectSource struct {
	// RemoteURL is the primary endpoint, expected to return a JSON array of
	// row-shaped objects.
	RemoteURL string `yaml:"remote_url"`
	// FallbackCSV is the path of the dataset of last resort.
	FallbackCSV string `yaml:"fallback_csv"`
}

type Config struct {
	Subjects map[string]SubjectSource `yaml:"subjects"`
}

// Load reads and validates the subjects YAML file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("config %s declares no subjects", path)
	}
	for name, src := range cfg.Subjects {
		if src.RemoteURL == "" && src.FallbackCSV == "" {
			return nil, fmt.Errorf("subject %q has no sources", name)
		}
	}
	return &cfg, nil
}

// Source looks up one subject's source wiring.
func (c *Config) Source(subject string) (SubjectSource, bool) {
	src, ok := c.Subjects[subject]
	return src, ok
}
