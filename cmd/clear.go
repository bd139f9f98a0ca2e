package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Clear command flags.
var clearYes bool

// NewClearCommand creates the clear command.
func NewClearCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored meeting data",
		Long: `Delete all stored meetings, annotations, ratings, and settings.

This wipes every partition of the encrypted store and resets settings to
their defaults. It cannot be undone. Use --yes to skip the confirmation
prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearYes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete all meeting data? This cannot be undone. Type 'yes' to confirm: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			facade, err := deps.loadState(cmd.Context())
			if err != nil {
				return err
			}

			if err := facade.ClearAll(cmd.Context()); err != nil {
				return fmt.Errorf("clearing data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All meeting data cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
