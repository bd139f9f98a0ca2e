package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/pkg/logging"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

// Import command flags.
var (
	importFormat string
	importDryRun bool
)

// NewImportCommand creates the import command.
func NewImportCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import meetings from a calendar export",
		Long: `Import meetings from a calendar export file.

Accepts a JSON export (an array of events, or a previous 'meetwise export'
file) or an iCalendar (.ics) file. Events that are not collaborative
meetings are skipped: all-day entries, holidays, transparent entries, and
events with at most one human participant. Resource rooms do not count
as participants.

Importing is additive: existing meetings are updated by id, meetings
absent from the file are kept. Reimporting a previous export preserves
ranks and annotations.

Examples:
  meetwise import calendar.json
  meetwise import calendar.ics
  meetwise import calendar.json --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVar(&importFormat, "format", "", "Input format: json or ics (default: by file extension)")
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and filter without writing anything")

	return cmd
}

func runImport(cmd *cobra.Command, deps *CommandDeps, path string) error {
	if _, err := deps.ensureConfig(); err != nil {
		return err
	}
	log := deps.logger()

	format := importFormat
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ics":
			format = "ics"
		default:
			format = "json"
		}
	}

	var events []meeting.RawEvent
	switch format {
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		events, err = meeting.ParseImport(data)
		if err != nil {
			return err
		}
	case "ics":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		defer f.Close()
		events, err = meeting.DecodeICS(f)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (must be json or ics)", format)
	}

	importable := meeting.FilterImportable(events)
	meetings := meeting.Normalize(importable)
	skipped := len(events) - len(importable)

	log.Debug("parsed import file",
		logging.F("events", len(events)),
		logging.F("importable", len(importable)))

	out := cmd.OutOrStdout()
	if importDryRun {
		fmt.Fprintf(out, "Would import %d meetings (%d events skipped)\n", len(meetings), skipped)
		for _, m := range meetings {
			fmt.Fprintf(out, "  %s  %s (%s)\n",
				m.StartTime.Format("Mon 2006-01-02 15:04"), m.Title, formatHours(m.Duration))
		}
		return nil
	}

	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	if err := facade.ImportMeetings(cmd.Context(), meetings); err != nil {
		return fmt.Errorf("importing meetings: %w", err)
	}

	fmt.Fprintf(out, "Imported %d meetings (%d events skipped, %d total in store)\n",
		len(meetings), skipped, len(facade.Meetings()))
	return nil
}
