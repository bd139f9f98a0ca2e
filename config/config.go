// Package config provides CLI configuration management for the meetwise
// command-line tool. It supports loading configuration from YAML files,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultTargetHours  = 40.0
	DefaultDaysAhead    = 7
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".meetwise"
	DefaultConfigFile   = "config.yaml"
	DefaultDataDirName  = "data"
)

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// DataDir is the directory holding the encrypted meeting store.
	// Defaults to <config dir>/data. Supports ~ expansion.
	DataDir string `yaml:"data_dir,omitempty"`

	// TargetHours is the weekly meeting-hour budget used for stats.
	TargetHours float64 `yaml:"target_hours"`

	// DaysAhead is the plan-window lookahead in days.
	DaysAhead int `yaml:"days_ahead"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Recipients are the default email recipients for meeting summaries.
	Recipients []string `yaml:"recipients,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		TargetHours:  DefaultTargetHours,
		DaysAhead:    DefaultDaysAhead,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MEETWISE_CONFIG_DIR if set, otherwise ~/.meetwise
func ConfigDir() (string, error) {
	if dir := os.Getenv("MEETWISE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.meetwise/config.yaml or $MEETWISE_CONFIG_DIR/config.yaml)
// 3. Environment variables (MEETWISE_DATA_DIR, MEETWISE_TARGET_HOURS, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if cfg.DataDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = filepath.Join(dir, DefaultDataDirName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg CLIConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if fileCfg.TargetHours != 0 {
		cfg.TargetHours = fileCfg.TargetHours
	}
	if fileCfg.DaysAhead != 0 {
		cfg.DaysAhead = fileCfg.DaysAhead
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.Recipients != nil {
		cfg.Recipients = fileCfg.Recipients
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("MEETWISE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("MEETWISE_TARGET_HOURS"); v != "" {
		if hours, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TargetHours = hours
		}
	}

	if v := os.Getenv("MEETWISE_DAYS_AHEAD"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.DaysAhead = days
		}
	}

	if v := os.Getenv("MEETWISE_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("MEETWISE_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.TargetHours <= 0 {
		return fmt.Errorf("target_hours must be positive")
	}

	if c.DaysAhead < 1 {
		return fmt.Errorf("days_ahead must be at least 1")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ResolvedDataDir returns the data directory with ~ expanded.
func (c *CLIConfig) ResolvedDataDir() (string, error) {
	return ExpandPath(c.DataDir)
}
