// Package cmd provides CLI commands for the meetwise tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/credentials"
	"github.com/otherjamesbrown/meetwise-cli/pkg/logging"
	"github.com/otherjamesbrown/meetwise-cli/pkg/state"
	"github.com/otherjamesbrown/meetwise-cli/pkg/store"
)

// CommandDeps holds the dependencies shared by meetwise commands. Tests
// inject their own OpenState and Now; production commands use
// DefaultDeps.
type CommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)

	// OpenState opens the encrypted store and loads the full state.
	OpenState func(ctx context.Context, cfg *config.CLIConfig) (*state.Facade, error)

	Logger logging.Logger

	// Now supplies the clock for window computation.
	Now func() time.Time
}

// DefaultDeps returns the default dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		LoadConfig: config.LoadConfig,
		OpenState:  openState,
		Now:        time.Now,
	}
}

// ensureConfig loads configuration if the caller did not inject one.
func (d *CommandDeps) ensureConfig() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

// logger returns the injected logger or builds one from config.
func (d *CommandDeps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	lcfg := logging.DefaultConfig()
	if d.Config != nil && d.Config.Debug {
		lcfg.Level = logging.LevelDebug
	} else {
		lcfg.Level = logging.LevelWarn
	}
	d.Logger = logging.NewLogger(lcfg)
	return d.Logger
}

// loadState opens the store and loads the application state.
func (d *CommandDeps) loadState(ctx context.Context) (*state.Facade, error) {
	cfg, err := d.ensureConfig()
	if err != nil {
		return nil, err
	}
	return d.OpenState(ctx, cfg)
}

// now returns the injected clock or the wall clock.
func (d *CommandDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// openState opens the encrypted store at the configured data directory
// and loads every partition.
func openState(ctx context.Context, cfg *config.CLIConfig) (*state.Facade, error) {
	dataDir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	keys, err := credentials.DefaultKeyProvider(dataDir)
	if err != nil {
		return nil, fmt.Errorf("obtaining encryption key: %w", err)
	}

	st, err := store.Open(dataDir, keys)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	facade := state.New(st, nil)
	if err := facade.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return facade, nil
}

// resolveFormat picks the per-command format override over the
// configured default.
func resolveFormat(cfg *config.CLIConfig, override string) config.OutputFormat {
	if override != "" {
		return config.OutputFormat(override)
	}
	if cfg != nil && cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return config.DefaultOutputFormat
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

// formatHours formats a fractional hour count, dropping a trailing .0.
func formatHours(hours float64) string {
	if hours == float64(int(hours)) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
