package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/pkg/report"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
)

// Email command flags.
var (
	emailTo      []string
	emailSubject string
	emailAll     bool
)

// NewEmailCommand creates the email command.
func NewEmailCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Compose a meeting summary email",
		Long: `Render the plan window as a priority-grouped summary and print a
Gmail compose link carrying it.

Recipients come from --to or the 'recipients' config key. Use --all to
summarize every stored meeting instead of only the plan window.

Examples:
  meetwise email --to chief-of-staff@example.com
  meetwise email --to a@example.com --to b@example.com --subject "Next week"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmail(cmd, deps)
		},
	}

	cmd.Flags().StringSliceVar(&emailTo, "to", nil, "Recipient address (repeatable)")
	cmd.Flags().StringVar(&emailSubject, "subject", "", "Email subject (default: Meeting Summary - <date>)")
	cmd.Flags().BoolVar(&emailAll, "all", false, "Summarize all meetings, not just the plan window")

	return cmd
}

func runEmail(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	recipients := emailTo
	if len(recipients) == 0 && deps.Config != nil {
		recipients = deps.Config.Recipients
	}

	meetings := facade.Meetings()
	if !emailAll {
		meetings = schedule.FilterByRange(meetings, facade.Windows(deps.now()).Plan)
	}

	now := deps.now()
	body := report.RenderSummary(report.Summary{
		Meetings:    meetings,
		Status:      facade.AllStatus(),
		Comments:    facade.AllComments(),
		Ratings:     facade.AllRatings(),
		GeneratedAt: now,
	})

	subject := emailSubject
	if subject == "" {
		subject = "Meeting Summary - " + now.Format("Jan 2, 2006")
	}

	composeURL, err := report.GmailComposeURL(subject, body, recipients)
	if err != nil {
		return fmt.Errorf("building compose link: %w (set --to or the recipients config key)", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, body)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "Compose: %s\n", composeURL)
	return nil
}
