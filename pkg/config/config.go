// Package config provides configuration loading and management for the
// local thickness pipeline: a struct of defaults, loaded from a YAML
// file when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the small algorithmic configuration struct consumed by every
// pipeline stage. It deliberately carries nothing but what the math
// needs.
type Config struct {
	// Threshold classifies a voxel byte value as foreground when
	// value >= Threshold (subject to Inverse). Valid range is 1..=255.
	Threshold uint8 `yaml:"threshold"`

	// Inverse flips the foreground/background classification.
	Inverse bool `yaml:"inverse"`

	// MaskTrim enables the optional mask-trim pass that zeroes output
	// voxels whose corresponding input voxel is background.
	MaskTrim bool `yaml:"maskTrim"`
}

const (
	DefaultThreshold uint8 = 128
	DefaultInverse         = false
)

// DefaultConfig returns the algorithmic defaults.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, Inverse: DefaultInverse, MaskTrim: true}
}

// RunConfig carries the driver's runtime tunables alongside the
// algorithmic Config. The extra fields here (worker count, verbosity)
// are ambient driver concerns, not part of the mathematical contract,
// so they live in a separate struct instead of enlarging Config.
type RunConfig struct {
	Config `yaml:",inline"`

	// NumWorkers is the size of the worker pool used by every
	// concurrent stage. Defaults to runtime.NumCPU().
	NumWorkers int `yaml:"numWorkers"`

	// Verbose gates the driver's stage-transition logging.
	Verbose bool `yaml:"verbose"`
}

// DefaultRunConfig returns the runtime defaults: all cores, silent.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Config:     DefaultConfig(),
		NumWorkers: runtime.NumCPU(),
		Verbose:    false,
	}
}

// LoadRunConfig loads configuration from a YAML file. If the file does
// not exist, the defaults are returned unmodified.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config: error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveRunConfig writes cfg to path as YAML, creating parent directories
// as needed.
func SaveRunConfig(cfg RunConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: error writing config file: %w", err)
	}

	return nil
}
