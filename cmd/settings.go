package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/config"
)

// Settings command flags.
var settingsOutput string

// settingsView is the machine-readable shape of 'settings show'.
type settingsView struct {
	TargetHours      float64 `json:"targetHours"`
	DaysAhead        int     `json:"daysAhead"`
	WeeklyPriorities string  `json:"weeklyPriorities,omitempty"`
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change stored settings",
		Long: `View and change the settings stored alongside the meeting data.

These settings travel with the encrypted store, unlike the config file:
  target-hours       weekly meeting-hour budget
  days-ahead         plan window lookahead in days
  weekly-priorities  free-text priorities shown in the plan`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			sv := settingsView{
				TargetHours:      facade.TargetHours(),
				DaysAhead:        facade.DaysAhead(),
				WeeklyPriorities: facade.WeeklyPriorities(),
			}

			out := cmd.OutOrStdout()
			switch resolveFormat(deps.Config, settingsOutput) {
			case config.OutputFormatJSON:
				return outputJSON(out, sv)
			case config.OutputFormatYAML:
				return outputYAML(out, sv)
			default:
				fmt.Fprintf(out, "  target-hours:       %s\n", formatHours(sv.TargetHours))
				fmt.Fprintf(out, "  days-ahead:         %d\n", sv.DaysAhead)
				if sv.WeeklyPriorities != "" {
					fmt.Fprintf(out, "  weekly-priorities:  %s\n", sv.WeeklyPriorities)
				}
				return nil
			}
		},
	}
	showCmd.Flags().StringVarP(&settingsOutput, "output", "o", "", "Output format: text, json, yaml")

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a stored setting",
		Long: `Set a stored setting.

Examples:
  meetwise settings set target-hours 35
  meetwise settings set days-ahead 14
  meetwise settings set weekly-priorities "ship v2, hiring"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			switch key {
			case "target-hours":
				hours, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid target-hours %q: %w", value, err)
				}
				if err := facade.SetTargetHours(cmd.Context(), hours); err != nil {
					return err
				}
			case "days-ahead":
				days, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid days-ahead %q: %w", value, err)
				}
				if err := facade.SetDaysAhead(cmd.Context(), days); err != nil {
					return err
				}
			case "weekly-priorities":
				if err := facade.SetWeeklyPriorities(cmd.Context(), value); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown setting %q (must be target-hours, days-ahead, or weekly-priorities)", key)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}
