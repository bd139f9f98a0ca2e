package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/config"
	"github.com/otherjamesbrown/meetwise-cli/pkg/content"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/ranking"
	"github.com/otherjamesbrown/meetwise-cli/pkg/state"
)

// Meeting command flags.
var (
	meetingOutput        string
	meetingCommentAuthor string
	meetingIconPrework   bool
)

// NewMeetingCommand creates the meeting command group.
func NewMeetingCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Inspect and annotate individual meetings",
		Long: `Inspect and annotate individual meetings.

Subcommands list the full meeting set, show one meeting with its
extracted agenda and join details, flag pending actions, manage
comments, and reorder meetings across priority buckets.`,
		Aliases: []string{"meetings", "m"},
	}

	cmd.PersistentFlags().StringVarP(&meetingOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newMeetingListCommand(deps))
	cmd.AddCommand(newMeetingShowCommand(deps))
	cmd.AddCommand(newMeetingActionCommand(deps))
	cmd.AddCommand(newMeetingCommentCommand(deps))
	cmd.AddCommand(newMeetingMoveCommand(deps))
	cmd.AddCommand(newMeetingIconCommand(deps))
	cmd.AddCommand(newMeetingActionsToggleCommand(deps))

	return cmd
}

func newMeetingListCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all stored meetings by rank",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			meetings := facade.Meetings()
			out := cmd.OutOrStdout()
			switch resolveFormat(deps.Config, meetingOutput) {
			case config.OutputFormatJSON:
				return outputJSON(out, meetings)
			case config.OutputFormatYAML:
				return outputYAML(out, meetings)
			default:
				renderMeetingList(out, facade, meetings)
				return nil
			}
		},
	}
}

func renderMeetingList(out io.Writer, facade *state.Facade, meetings []meeting.Meeting) {
	if len(meetings) == 0 {
		fmt.Fprintln(out, "No meetings stored. Run 'meetwise import' first.")
		return
	}

	fmt.Fprintf(out, "%-12s %6s %-8s %-16s %5s  %s\n", "ID", "RANK", "PRIORITY", "START", "HOURS", "TITLE")
	for _, m := range meetings {
		flags := ""
		if facade.Status(m.ID).Any() {
			flags = " !"
		}
		fmt.Fprintf(out, "%-12s %6d %-8s %-16s %5s  %s%s\n",
			m.ID, m.Rank, m.Priority.OrDefault(),
			m.StartTime.Format("2006-01-02 15:04"),
			formatHours(m.Duration),
			truncate(m.Title, 44), flags)
	}
}

// meetingDetail is the machine-readable shape of 'meeting show'.
type meetingDetail struct {
	Meeting  meeting.Meeting   `json:"meeting"`
	Status   meeting.Status    `json:"status"`
	Comments []meeting.Comment `json:"comments"`
	Rating   *meeting.Rating   `json:"rating,omitempty"`
	Content  content.Extracted `json:"content"`
}

func newMeetingShowCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Show one meeting with extracted agenda and join details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			m, ok := facade.Meeting(args[0])
			if !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}

			detail := meetingDetail{
				Meeting:  m,
				Status:   facade.Status(m.ID),
				Comments: facade.Comments(m.ID),
				Content:  content.Extract(m.Description),
			}
			if r, ok := facade.Rating(m.ID); ok {
				detail.Rating = &r
			}

			out := cmd.OutOrStdout()
			switch resolveFormat(deps.Config, meetingOutput) {
			case config.OutputFormatJSON:
				return outputJSON(out, detail)
			case config.OutputFormatYAML:
				return outputYAML(out, detail)
			default:
				renderMeetingDetail(out, detail)
				return nil
			}
		},
	}
}

func renderMeetingDetail(out io.Writer, d meetingDetail) {
	bold := color.New(color.Bold)
	m := d.Meeting

	bold.Fprintln(out, m.Title)
	fmt.Fprintf(out, "  ID:        %s\n", m.ID)
	fmt.Fprintf(out, "  When:      %s – %s (%s)\n",
		m.StartTime.Format("Mon Jan 2 15:04"), m.EndTime.Format("15:04"), formatHours(m.Duration))
	fmt.Fprintf(out, "  Priority:  %s (rank %d)\n", m.Priority.OrDefault(), m.Rank)
	if m.Location != "" {
		fmt.Fprintf(out, "  Location:  %s\n", m.Location)
	}
	if len(m.Participants) > 0 {
		fmt.Fprintf(out, "  People:    %s\n", strings.Join(m.HumanParticipants(), ", "))
	}
	if d.Rating != nil {
		fmt.Fprintf(out, "  Rating:    %s\n", stars(d.Rating.Rating))
	}

	if flags := pendingActions(d.Status); len(flags) > 0 {
		color.New(color.FgYellow).Fprintf(out, "  Pending:   %s\n", strings.Join(flags, ", "))
	}

	if d.Content.JoinURL != "" {
		fmt.Fprintln(out, "\nJoin:")
		fmt.Fprintf(out, "  URL:       %s\n", d.Content.JoinURL)
		if d.Content.MeetingID != "" {
			fmt.Fprintf(out, "  ID:        %s\n", d.Content.MeetingID)
		}
		if d.Content.Passcode != "" {
			fmt.Fprintf(out, "  Passcode:  %s\n", d.Content.Passcode)
		}
	}

	if d.Content.Agenda != "" {
		fmt.Fprintln(out, "\nAgenda:")
		for _, line := range strings.Split(d.Content.Agenda, "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}

	if len(d.Content.PreReadLinks) > 0 {
		fmt.Fprintln(out, "\nPre-read:")
		for _, l := range d.Content.PreReadLinks {
			if l.Title != "" && l.Title != l.URL {
				fmt.Fprintf(out, "  %s: %s\n", l.Title, l.URL)
			} else {
				fmt.Fprintf(out, "  %s\n", l.URL)
			}
		}
	}

	if len(d.Comments) > 0 {
		fmt.Fprintln(out, "\nComments:")
		for _, c := range d.Comments {
			if c.Author != "" {
				fmt.Fprintf(out, "  [%s] %s (%s)\n", c.ID, c.Text, c.Author)
			} else {
				fmt.Fprintf(out, "  [%s] %s\n", c.ID, c.Text)
			}
		}
	}
}

func pendingActions(st meeting.Status) []string {
	var flags []string
	if st.NeedsCancel {
		flags = append(flags, "cancel")
	}
	if st.NeedsShorten {
		flags = append(flags, "shorten")
	}
	if st.NeedsReschedule {
		flags = append(flags, "reschedule")
	}
	if st.PrepRequired {
		flags = append(flags, "prep")
	}
	return flags
}

func newMeetingActionCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "action <meeting-id> <cancel|shorten|reschedule|prep>",
		Short: "Toggle a pending action on a meeting",
		Long: `Toggle a pending-action flag on a meeting.

Actions mark intent: a meeting flagged 'cancel' stays in the plan until
you actually cancel it in the calendar. Toggling an already-set flag
clears it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := facade.Meeting(args[0]); !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}

			st, err := facade.ToggleAction(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			flags := pendingActions(st)
			if len(flags) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no pending actions\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], strings.Join(flags, ", "))
			}
			return nil
		},
	}
}

func newMeetingCommentCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage comments on a meeting",
	}

	addCmd := &cobra.Command{
		Use:   "add <meeting-id> <text>",
		Short: "Add a comment to a meeting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := facade.Meeting(args[0]); !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}

			c, err := facade.AddComment(cmd.Context(), args[0], args[1], meetingCommentAuthor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s\n", c.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&meetingCommentAuthor, "author", "", "Comment author name")

	editCmd := &cobra.Command{
		Use:   "edit <meeting-id> <comment-id> <text>",
		Short: "Edit an existing comment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if err := facade.UpdateComment(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated comment %s\n", args[1])
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <meeting-id> <comment-id>",
		Short:   "Delete a comment",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if err := facade.DeleteComment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(addCmd, editCmd, deleteCmd)
	return cmd
}

func newMeetingMoveCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "move <meeting-id> <high|regular|low> <position>",
		Short: "Move a meeting to a bucket position",
		Long: `Move a meeting to a position within a priority bucket.

Position is 1-based within the destination bucket. Moving across
buckets changes the meeting's priority; in both cases the affected
buckets are renumbered with gapped ranks.

Examples:
  meetwise meeting move evt-123 high 1
  meetwise meeting move evt-123 low 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			m, ok := facade.Meeting(args[0])
			if !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}

			dstLevel := meeting.PriorityLevel(args[1])
			if !dstLevel.IsValid() {
				return fmt.Errorf("invalid priority %q (must be high, regular, or low)", args[1])
			}

			pos, err := strconv.Atoi(args[2])
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q: must be a 1-based index", args[2])
			}

			srcLevel := m.Priority.OrDefault()
			srcIndex := bucketIndexOf(facade.Buckets(facade.Meetings())[srcLevel], m.ID)
			if srcIndex < 0 {
				return fmt.Errorf("meeting %q not found in %s bucket", m.ID, srcLevel)
			}

			dstIndex := pos - 1
			if srcLevel == dstLevel && dstIndex >= len(facade.Buckets(facade.Meetings())[srcLevel]) {
				dstIndex = len(facade.Buckets(facade.Meetings())[srcLevel]) - 1
			}

			mv := ranking.Move{
				Source:      ranking.Position{Bucket: srcLevel, Index: srcIndex},
				Destination: &ranking.Position{Bucket: dstLevel, Index: dstIndex},
			}
			if err := facade.Move(cmd.Context(), mv); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s position %d\n", m.ID, dstLevel, pos)
			return nil
		},
	}
}

func newMeetingActionsToggleCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-actions <meeting-id>",
		Short: "Toggle whether pending actions are shown for a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := facade.Meeting(args[0]); !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}
			if err := facade.ToggleActions(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Toggled action display for %s\n", args[0])
			return nil
		},
	}
}

func bucketIndexOf(bucket []meeting.Meeting, id string) int {
	for i, m := range bucket {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func newMeetingIconCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icon <meeting-id> <icon-name>",
		Short: "Set the icon shown for a meeting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := facade.Meeting(args[0]); !ok {
				return fmt.Errorf("no meeting with id %q", args[0])
			}

			if meetingIconPrework {
				err = facade.SetPreworkIcon(cmd.Context(), args[0], args[1])
			} else {
				err = facade.SetIcon(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set icon for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&meetingIconPrework, "prework", false, "Set the prework icon instead")
	return cmd
}
