package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
)

// Destroy returns the command that deletes the stack.
func Destroy() *cobra.Command {
	var configPath string
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource of the stack",
		Long: `Delete every resource of the stack in reverse dependency order.

The database is deleted without a final snapshot. Resources that are
already gone are skipped, so an interrupted destroy can be run again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, yes)
		},
	}
	configFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	return cmd
}
