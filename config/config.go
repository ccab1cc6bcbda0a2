// Package config provides configuration loading and management for catalogd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete catalogd configuration
type Config struct {
	NATS  NATSConfig  `yaml:"nats"`
	HTTP  HTTPConfig  `yaml:"http"`
	Spool SpoolConfig `yaml:"spool"`
	Graph GraphConfig `yaml:"graph"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// HTTPConfig configures the query API listener
type HTTPConfig struct {
	// Addr is the listen address for the query API (e.g., ":8080")
	Addr string `yaml:"addr"`
}

// SpoolConfig configures the optional spool directory watcher. Files
// dropped into the spool are submitted as catalogs.
type SpoolConfig struct {
	// Dir is the spool directory to watch (empty = watcher disabled)
	Dir string `yaml:"dir"`
	// Pattern is the glob matched against paths relative to Dir
	Pattern string `yaml:"pattern"`
	// Debounce is how long a file must be quiet before submission
	Debounce time.Duration `yaml:"debounce"`
}

// GraphConfig configures knowledge graph publishing
type GraphConfig struct {
	// Disabled turns off publishing accepted catalogs as graph entities
	Disabled bool `yaml:"disabled"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Spool: SpoolConfig{
			Dir:      "", // Disabled
			Pattern:  "**/*.json",
			Debounce: 500 * time.Millisecond,
		},
		Graph: GraphConfig{
			Disabled: false,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Spool.Dir != "" && c.Spool.Pattern == "" {
		return fmt.Errorf("spool.pattern is required when spool.dir is set")
	}
	if c.Spool.Debounce < 0 {
		return fmt.Errorf("spool.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// HTTP
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}

	// Spool
	if other.Spool.Dir != "" {
		c.Spool.Dir = other.Spool.Dir
	}
	if other.Spool.Pattern != "" {
		c.Spool.Pattern = other.Spool.Pattern
	}
	if other.Spool.Debounce != 0 {
		c.Spool.Debounce = other.Spool.Debounce
	}

	// Graph
	if other.Graph.Disabled {
		c.Graph.Disabled = true
	}
}
