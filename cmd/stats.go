package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
)

// Stats command flags.
var statsOutput string

// statsView is the machine-readable shape of the stats output.
type statsView struct {
	Window   schedule.Window                   `json:"window"`
	Stats    meeting.Stats                     `json:"stats"`
	Count    int                               `json:"meetingCount"`
	ByBucket map[meeting.PriorityLevel]float64 `json:"hoursByBucket"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show meeting-load statistics for the plan window",
		Long: `Show meeting-load statistics for the plan window.

Reports total committed hours against the weekly target, the remaining
budget or overrun, and the hour split across priority buckets.

Examples:
  meetwise stats
  meetwise stats -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&statsOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runStats(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	windows := facade.Windows(deps.now())
	view := schedule.FilterByRange(facade.Meetings(), windows.Plan)
	stats := facade.StatsFor(view)

	byBucket := make(map[meeting.PriorityLevel]float64, 3)
	for level, bucket := range facade.Buckets(view) {
		var hours float64
		for _, m := range bucket {
			hours += m.Duration
		}
		byBucket[level] = hours
	}

	sv := statsView{Window: windows.Plan, Stats: stats, Count: len(view), ByBucket: byBucket}

	out := cmd.OutOrStdout()
	switch resolveFormat(deps.Config, statsOutput) {
	case config.OutputFormatJSON:
		return outputJSON(out, sv)
	case config.OutputFormatYAML:
		return outputYAML(out, sv)
	default:
		renderStatsText(out, sv)
		return nil
	}
}

func renderStatsText(out io.Writer, sv statsView) {
	bold := color.New(color.Bold)

	bold.Fprintf(out, "Stats: %s – %s\n\n",
		sv.Window.Start.Format("Mon Jan 2"), sv.Window.End.Format("Mon Jan 2"))

	fmt.Fprintf(out, "  Meetings:   %d\n", sv.Count)
	fmt.Fprintf(out, "  Committed:  %s\n", formatHours(sv.Stats.TotalHours))
	fmt.Fprintf(out, "  Target:     %s\n", formatHours(sv.Stats.TargetHours))
	if sv.Stats.OverHours > 0 {
		color.New(color.FgRed).Fprintf(out, "  Over:       %s\n", formatHours(sv.Stats.OverHours))
	} else {
		color.New(color.FgGreen).Fprintf(out, "  Available:  %s\n", formatHours(sv.Stats.AvailableHours))
	}

	fmt.Fprintln(out, "\n  By bucket:")
	for _, level := range meeting.Levels() {
		fmt.Fprintf(out, "    %-8s %s\n", level, formatHours(sv.ByBucket[level]))
	}
}
