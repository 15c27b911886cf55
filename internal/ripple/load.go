package ripple

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads configuration overrides from a YAML file. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading ripple config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML overrides on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing ripple config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid ripple config: %w", err)
	}
	return cfg, nil
}

// LoadInput reads an organization from a YAML file and normalizes it.
func LoadInput(path string) (OrganizationInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OrganizationInput{}, fmt.Errorf("reading organization input: %w", err)
	}

	var in OrganizationInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return OrganizationInput{}, fmt.Errorf("parsing organization YAML: %w", err)
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return OrganizationInput{}, fmt.Errorf("invalid organization input: %w", err)
	}
	return in, nil
}
