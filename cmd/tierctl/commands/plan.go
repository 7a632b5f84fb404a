package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
)

// Plan returns the command that validates the configuration and lists the
// resources in apply order.
func Plan() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Validate the configuration and show the resources in apply order",
		Long: `Validate the configuration and print every resource of the stack
grouped by level. Resources of one level are created in parallel, levels
one after another. plan does not call AWS.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Plan(configPath)
		},
	}
	configFlag(cmd, &configPath)

	return cmd
}
