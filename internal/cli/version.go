package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techthink/backoffice/internal/storage"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backoffice %s (commit %s)\n", version, commit)
			fmt.Fprintf(cmd.OutOrStdout(), "SQLite driver: %s (%s build)\n", storage.DriverName, storage.BuildMode)
		},
	}
}
