package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlSearchAPI holds the external search API settings
type TomlSearchAPI struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token,omitempty"`
}

// TomlClassifierAPI holds the external text-classification API settings
type TomlClassifierAPI struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token,omitempty"`
}

// TomlGeocoderAPI holds the external geocoding API settings
type TomlGeocoderAPI struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	// Number of concurrent sentiment workers. Passed explicitly into the
	// supervisor constructor, never read as ambient state.
	Workers    int               `toml:"workers"`
	Database   string            `toml:"database"`
	Search     TomlSearchAPI     `toml:"search"`
	Classifier TomlClassifierAPI `toml:"classifier"`
	Geocoder   TomlGeocoderAPI   `toml:"geocoder"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be a positive integer, got %d", config.Workers)
	}

	return &config, nil
}
