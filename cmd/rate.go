package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
)

// Rate command flags.
var (
	rateOutput  string
	rateComment string
	rateAll     bool
)

// NewRateCommand creates the rate command.
func NewRateCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "rate [meeting-id] [stars]",
		Short: "Rate recent meetings",
		Long: `List meetings from the trailing week awaiting a rating, or record
a rating for one of them.

With no arguments, lists the rate window. With a meeting id and a star
count (1-5), records the rating.

Examples:
  meetwise rate
  meetwise rate --all
  meetwise rate evt-123 4
  meetwise rate evt-123 2 --comment "could have been an email"`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return runRateOne(cmd, deps, args[0], args[1])
			}
			if len(args) == 1 {
				return fmt.Errorf("a star count (1-5) is required with a meeting id")
			}
			return runRateList(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&rateOutput, "output", "o", "", "Output format: text, json, yaml")
	cmd.Flags().StringVar(&rateComment, "comment", "", "Optional comment to store with the rating")
	cmd.Flags().BoolVar(&rateAll, "all", false, "Include already-rated meetings in the list")

	return cmd
}

func runRateOne(cmd *cobra.Command, deps *CommandDeps, id, starsArg string) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	if _, ok := facade.Meeting(id); !ok {
		return fmt.Errorf("no meeting with id %q", id)
	}

	var starCount int
	if _, err := fmt.Sscanf(starsArg, "%d", &starCount); err != nil {
		return fmt.Errorf("invalid star count %q: must be a number 1-5", starsArg)
	}

	if err := facade.SetRating(cmd.Context(), id, starCount, rateComment); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rated %s: %s\n", id, stars(starCount))
	return nil
}

func runRateList(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	windows := facade.Windows(deps.now())
	view := schedule.FilterByRange(facade.Meetings(), windows.Rate)

	rows := make([]reviewRow, 0, len(view))
	for _, m := range view {
		row := reviewRow{Meeting: m}
		if r, ok := facade.Rating(m.ID); ok {
			if !rateAll {
				continue
			}
			row.Rating = &r
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	switch resolveFormat(deps.Config, rateOutput) {
	case config.OutputFormatJSON:
		return outputJSON(out, reviewView{Window: windows.Rate, Stats: facade.StatsFor(view), Rows: rows})
	case config.OutputFormatYAML:
		return outputYAML(out, reviewView{Window: windows.Rate, Stats: facade.StatsFor(view), Rows: rows})
	default:
		renderRateText(out, windows.Rate, rows)
		return nil
	}
}

func renderRateText(out io.Writer, w schedule.Window, rows []reviewRow) {
	bold := color.New(color.Bold)

	bold.Fprintf(out, "Rate: %s – %s\n\n",
		w.Start.Format("Mon Jan 2"), w.End.Format("Mon Jan 2 15:04"))

	if len(rows) == 0 {
		fmt.Fprintln(out, "Nothing to rate. Nice.")
		return
	}

	for _, row := range rows {
		m := row.Meeting
		rating := "unrated"
		if row.Rating != nil {
			rating = stars(row.Rating.Rating)
		}
		fmt.Fprintf(out, "  %-12s %-16s %5s  %-7s  %s\n",
			m.ID,
			m.StartTime.Format("2006-01-02 15:04"),
			formatHours(m.Duration),
			rating,
			truncate(m.Title, 40))
	}
	fmt.Fprintln(out, "\nRate one with: meetwise rate <meeting-id> <stars>")
}
