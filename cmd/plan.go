package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
	"github.com/otherjamesbrown/meetwise-cli/pkg/stats"
)

// Plan command flags.
var planOutput string

var bucketTitles = map[meeting.PriorityLevel]string{
	meeting.PriorityHigh:    "HIGH PRIORITY",
	meeting.PriorityRegular: "REGULAR",
	meeting.PriorityLow:     "LOW PRIORITY",
}

// planView is the machine-readable shape of the plan output.
type planView struct {
	Window     schedule.Window                             `json:"window"`
	Stats      meeting.Stats                               `json:"stats"`
	Buckets    map[meeting.PriorityLevel][]meeting.Meeting `json:"buckets"`
	Priorities string                                      `json:"weeklyPriorities,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show upcoming meetings grouped by priority",
		Long: `Show the upcoming meeting load for the plan window.

Meetings from today through the configured lookahead are grouped into
priority buckets (high, regular, low) and ordered by rank. A running
total of committed hours is shown against the weekly target; meetings
past the budget are highlighted.

Examples:
  meetwise plan
  meetwise plan -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&planOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runPlan(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	windows := facade.Windows(deps.now())
	view := schedule.FilterByRange(facade.Meetings(), windows.Plan)
	buckets := facade.Buckets(view)
	sum := facade.StatsFor(view)

	out := cmd.OutOrStdout()
	switch resolveFormat(deps.Config, planOutput) {
	case config.OutputFormatJSON:
		return outputJSON(out, planView{
			Window: windows.Plan, Stats: sum, Buckets: buckets,
			Priorities: facade.WeeklyPriorities(),
		})
	case config.OutputFormatYAML:
		return outputYAML(out, planView{
			Window: windows.Plan, Stats: sum, Buckets: buckets,
			Priorities: facade.WeeklyPriorities(),
		})
	default:
		renderPlanText(out, facade.WeeklyPriorities(), windows.Plan, sum, buckets)
		return nil
	}
}

func renderPlanText(out io.Writer, priorities string, w schedule.Window, sum meeting.Stats, buckets map[meeting.PriorityLevel][]meeting.Meeting) {
	bold := color.New(color.Bold)
	over := color.New(color.FgRed)
	warn := color.New(color.FgYellow)
	ok := color.New(color.FgGreen)

	bold.Fprintf(out, "Plan: %s – %s\n",
		w.Start.Format("Mon Jan 2"), w.End.Format("Mon Jan 2"))
	if priorities != "" {
		fmt.Fprintf(out, "Weekly priorities: %s\n", priorities)
	}
	fmt.Fprintln(out)

	// Running totals span the buckets in display order; the first row
	// past the budget and everything after it render red.
	ordered := make([]meeting.Meeting, 0, len(buckets[meeting.PriorityHigh])+len(buckets[meeting.PriorityRegular])+len(buckets[meeting.PriorityLow]))
	for _, level := range meeting.Levels() {
		ordered = append(ordered, buckets[level]...)
	}
	totals := stats.RunningTotals(ordered)

	row := 0
	for _, level := range meeting.Levels() {
		bucket := buckets[level]
		if len(bucket) == 0 {
			continue
		}
		bold.Fprintln(out, bucketTitles[level])
		for i, m := range bucket {
			running := totals[row]
			row++
			line := fmt.Sprintf("  %2d. %-13s %5s  %6s  %s",
				i+1,
				m.StartTime.Format("Mon 15:04"),
				formatHours(m.Duration),
				formatHours(running),
				truncate(m.Title, 50))
			if running > sum.TargetHours {
				over.Fprintln(out, line)
			} else {
				fmt.Fprintln(out, line)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total: %s of %s target", formatHours(sum.TotalHours), formatHours(sum.TargetHours))
	if sum.OverHours > 0 {
		warn.Fprintf(out, "  (%s over)", formatHours(sum.OverHours))
	} else {
		ok.Fprintf(out, "  (%s available)", formatHours(sum.AvailableHours))
	}
	fmt.Fprintln(out)
}
