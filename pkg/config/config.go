// Package config handles configuration loading and management for the
// mbcat tool.
package config

import (
	"os"
	"path/filepath"

	"github.com/commatea/modbus-core/pkg/logger"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default config file locations.
var configPaths = []string{
	"./mbcat.yaml",
	"./mbcat.yml",
	"~/.config/mbcat/config.yaml",
	"/etc/mbcat/config.yaml",
}

// Config holds the mbcat configuration.
type Config struct {
	// Decode configures the stream decoder.
	Decode DecodeConfig `yaml:"decode" json:"decode"`

	// Logging configures structured log output.
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// DecodeConfig configures how captured streams are replayed through the
// framer.
type DecodeConfig struct {
	// ChunkSize is how many bytes are fed to the framer per call,
	// simulating fragmented delivery. 0 feeds the whole input at once.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size" validate:"min=0"`

	// HexDump prints each decoded PDU as a hex dump.
	HexDump bool `yaml:"hex_dump" json:"hex_dump"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the endpoint on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen is the address to serve metrics on.
	Listen string `yaml:"listen" json:"listen" validate:"required_if=Enabled true"`

	// Endpoint is the HTTP path of the metrics handler.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// Load loads configuration from file.
func Load(path string) (*Config, error) {
	// If path is specified, use it directly
	if path != "" {
		return loadFile(path)
	}

	// Try default paths
	for _, p := range configPaths {
		// Expand home directory
		if p[0] == '~' {
			home, err := os.UserHomeDir()
			if err == nil {
				p = filepath.Join(home, p[2:])
			}
		}

		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}

	// Return default config if no file found
	return DefaultConfig(), nil
}

// loadFile loads configuration from a specific file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration.
func Validate(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

// Save saves configuration to file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Decode: DecodeConfig{
			ChunkSize: 0,
			HexDump:   false,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Listen:   "localhost:9464",
			Endpoint: "/metrics",
		},
	}
}
