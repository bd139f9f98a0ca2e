package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetwise-cli/pkg/report"
)

// Export command flags.
var exportFile string

// NewExportCommand creates the export command.
func NewExportCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the meeting set as JSON",
		Long: `Export the full meeting set as JSON.

The export uses the same field names the importer reads, so a later
'meetwise import' of the file restores meetings with their ranks and
annotations intact.

Examples:
  meetwise export > meetings.json
  meetwise export --file meetings.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&exportFile, "file", "f", "", "Write to file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, deps *CommandDeps) error {
	facade, err := deps.loadState(cmd.Context())
	if err != nil {
		return err
	}

	data, err := report.ExportJSON(facade.Meetings(), deps.now())
	if err != nil {
		return err
	}

	if exportFile == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(exportFile, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", exportFile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d meetings to %s\n", len(facade.Meetings()), exportFile)
	return nil
}
