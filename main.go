// Package main provides the meetwise CLI entry point.
// meetwise is a single-user tool for managing meeting load: import a
// calendar export, rank meetings into priority buckets, track the
// weekly hour budget, and share the outcome.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/cmd"
	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/pkg/buildinfo"
)

// Global flags and state.
var (
	outputFormat string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meetwise",
	Short: "meetwise - meeting load management",
	Long: `meetwise keeps your meeting load inside a weekly hour budget.

Import a calendar export, rank the meetings that matter into priority
buckets, flag the ones to cancel or shorten, and rate what the last
week's meetings were actually worth. Everything is stored encrypted on
your own machine.

COMMON WORKFLOWS:
  Plan the week:    meetwise import calendar.json  →  meetwise plan
  Tune priorities:  meetwise meeting move <id> high 1
  Flag actions:     meetwise meeting action <id> cancel
  Close the loop:   meetwise rate  →  meetwise review
  Share:            meetwise email --to <addr>  |  meetwise export

DISCOVERY:
  meetwise <command> --help    Subcommands, flags, and examples
  meetwise stats               Load against the weekly budget`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if debug {
			cfg.Debug = true
		}

		deps.Config = cfg
		return nil
	},
}

// deps is the shared dependency set wired into every command.
var deps = cmd.DefaultDeps()

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get()
		out := c.OutOrStdout()
		fmt.Fprintf(out, "meetwise version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:  %s\n", info.Commit)
		fmt.Fprintf(out, "  built:   %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:      %s\n", info.GoVersion)
		return nil
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the meetwise CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(c *cobra.Command, args []string) error {
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
		}

		configPath, _ := config.ConfigPath()

		out := c.OutOrStdout()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Config file:   %s\n", configPath)
		fmt.Fprintf(out, "  Data dir:      %s\n", cfg.DataDir)
		fmt.Fprintf(out, "  Target hours:  %g\n", cfg.TargetHours)
		fmt.Fprintf(out, "  Days ahead:    %d\n", cfg.DaysAhead)
		fmt.Fprintf(out, "  Output format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "  Debug:         %t\n", cfg.Debug)
		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(c *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists: %s\n", configPath)
			fmt.Println("Use 'meetwise config show' to view current settings.")
			return nil
		}

		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfig(defaultCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  data_dir       - Directory for the encrypted meeting store (supports ~)
  output_format  - Default output format (text, json, yaml)
  debug          - Enable debug mode (true/false)

Note: target hours, lookahead, and weekly priorities live in the
encrypted store; change those with 'meetwise settings set'.

Examples:
  meetwise config set output_format json
  meetwise config set data_dir ~/meetings`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		currentCfg, err := config.LoadConfig()
		if err != nil {
			currentCfg = config.DefaultConfig()
		}

		switch key {
		case "data_dir":
			expanded, err := config.ExpandPath(value)
			if err != nil {
				return fmt.Errorf("invalid data dir: %w", err)
			}
			currentCfg.DataDir = value
			fmt.Printf("  (expands to: %s)\n", expanded)
		case "output_format":
			format := config.OutputFormat(value)
			if !format.IsValid() {
				return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
			}
			currentCfg.OutputFormat = format
		case "debug":
			if value == "true" || value == "1" {
				currentCfg.Debug = true
			} else if value == "false" || value == "0" {
				currentCfg.Debug = false
			} else {
				return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
			}
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}

		if err := config.SaveConfig(currentCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for meetwise.

To load completions:

Bash:
  $ source <(meetwise completion bash)

Zsh:
  $ meetwise completion zsh > "${fpath[1]}/_meetwise"

Fish:
  $ meetwise completion fish | source

PowerShell:
  PS> meetwise completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "plan", Title: "Planning:"},
		&cobra.Group{ID: "annotate", Title: "Annotating:"},
		&cobra.Group{ID: "share", Title: "Sharing:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	importCmd := cmd.NewImportCommand(deps)
	importCmd.GroupID = "plan"
	rootCmd.AddCommand(importCmd)

	planCmd := cmd.NewPlanCommand(deps)
	planCmd.GroupID = "plan"
	rootCmd.AddCommand(planCmd)

	reviewCmd := cmd.NewReviewCommand(deps)
	reviewCmd.GroupID = "plan"
	rootCmd.AddCommand(reviewCmd)

	statsCmd := cmd.NewStatsCommand(deps)
	statsCmd.GroupID = "plan"
	rootCmd.AddCommand(statsCmd)

	meetingCmd := cmd.NewMeetingCommand(deps)
	meetingCmd.GroupID = "annotate"
	rootCmd.AddCommand(meetingCmd)

	rateCmd := cmd.NewRateCommand(deps)
	rateCmd.GroupID = "annotate"
	rootCmd.AddCommand(rateCmd)

	settingsCmd := cmd.NewSettingsCommand(deps)
	settingsCmd.GroupID = "annotate"
	rootCmd.AddCommand(settingsCmd)

	exportCmd := cmd.NewExportCommand(deps)
	exportCmd.GroupID = "share"
	rootCmd.AddCommand(exportCmd)

	emailCmd := cmd.NewEmailCommand(deps)
	emailCmd.GroupID = "share"
	rootCmd.AddCommand(emailCmd)

	clearCmd := cmd.NewClearCommand(deps)
	clearCmd.GroupID = "setup"
	rootCmd.AddCommand(clearCmd)

	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
