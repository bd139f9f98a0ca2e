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

// Review command flags.
var reviewOutput string

// reviewRow pairs a past meeting with its rating for output.
type reviewRow struct {
	Meeting meeting.Meeting `json:"meeting"`
	Rating  *meeting.Rating `json:"rating,omitempty"`
}

// reviewView is the machine-readable shape of the review output.
type reviewView struct {
	Window schedule.Window `json:"window"`
	Stats  meeting.Stats   `json:"stats"`
	Rows   []reviewRow     `json:"meetings"`
}

// NewReviewCommand creates the review command.
func NewReviewCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show past meetings from the lookback window",
		Long: `Show meetings from the last 90 days, through yesterday.

Each meeting is listed with its recorded rating, if any, so patterns in
meeting quality stand out over time.

Examples:
  meetwise review
  meetwise review -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&reviewOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runReview(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	windows := facade.Windows(deps.now())
	view := schedule.FilterByRange(facade.Meetings(), windows.Review)

	rows := make([]reviewRow, 0, len(view))
	for _, m := range view {
		row := reviewRow{Meeting: m}
		if r, ok := facade.Rating(m.ID); ok {
			row.Rating = &r
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	switch resolveFormat(deps.Config, reviewOutput) {
	case config.OutputFormatJSON:
		return outputJSON(out, reviewView{Window: windows.Review, Stats: facade.StatsFor(view), Rows: rows})
	case config.OutputFormatYAML:
		return outputYAML(out, reviewView{Window: windows.Review, Stats: facade.StatsFor(view), Rows: rows})
	default:
		renderReviewText(out, windows.Review, rows)
		return nil
	}
}

func renderReviewText(out io.Writer, w schedule.Window, rows []reviewRow) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Fprintf(out, "Review: %s – %s\n\n",
		w.Start.Format("Mon Jan 2"), w.End.Format("Mon Jan 2"))

	if len(rows) == 0 {
		fmt.Fprintln(out, "No meetings in the lookback window.")
		return
	}

	for _, row := range rows {
		m := row.Meeting
		rating := "unrated"
		if row.Rating != nil {
			rating = stars(row.Rating.Rating)
		}
		fmt.Fprintf(out, "  %-16s %5s  %-7s  %s\n",
			m.StartTime.Format("2006-01-02 15:04"),
			formatHours(m.Duration),
			rating,
			truncate(m.Title, 50))
		if row.Rating != nil && row.Rating.Comment != "" {
			dim.Fprintf(out, "                            %s\n", row.Rating.Comment)
		}
	}
}

func stars(n int) string {
	s := ""
	for i := 0; i < 5; i++ {
		if i < n {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}
