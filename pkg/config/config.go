// Package config provides configuration loading and management for dcmtojpeg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores bounds how many files are converted concurrently
		NumCores int `yaml:"numCores"`

		// Frames selects the multi-frame policy: "first" or "all"
		Frames string `yaml:"frames"`

		// UseVOILUT enables the VOI LUT sequence before manual windowing
		UseVOILUT bool `yaml:"useVoiLut"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// FolderName is the output folder created under the input directory
		FolderName string `yaml:"folderName"`

		// Quality is the JPEG quality, 1-100
		Quality int `yaml:"quality"`

		// MaxDimension downsizes larger images when non-zero
		MaxDimension uint `yaml:"maxDimension"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Verbose enables debug output
		Verbose bool `yaml:"verbose"`

		// Format is "console" or "json"
		Format string `yaml:"format"`
	} `yaml:"logging"`

	// Metrics parameters
	Metrics struct {
		// Addr is the listen address of the /metrics endpoint; empty disables it
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Frames = "first"
	cfg.Processing.UseVOILUT = true

	cfg.Output.FolderName = "converted_jpegs"
	cfg.Output.Quality = 95
	cfg.Output.MaxDimension = 0

	cfg.Logging.Verbose = false
	cfg.Logging.Format = "console"

	return cfg
}

// LoadConfig loads and validates configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath)
}

// LoadWithOverrides reads the YAML file, applies the overrides in order and
// validates the result once, so an override can repair a bad file value
func LoadWithOverrides(configPath string, overrides ...func(*Config)) (*Config, error) {
	cfg, err := ReadConfig(configPath)
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReadConfig reads configuration from a YAML file without validating it
// If the file doesn't exist, it returns the default configuration
func ReadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be within 1-100, got %d", c.Output.Quality)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be positive, got %d", c.Processing.NumCores)
	}
	switch c.Processing.Frames {
	case "first", "all":
	default:
		return fmt.Errorf("processing.frames must be \"first\" or \"all\", got %q", c.Processing.Frames)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Output.FolderName == "" {
		return fmt.Errorf("output.folderName must not be empty")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
