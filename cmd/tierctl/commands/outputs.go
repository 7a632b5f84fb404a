package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
)

// Outputs returns the command that prints the recorded stack outputs.
func Outputs() *cobra.Command {
	var configPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Show the URLs and identifiers of the applied stack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Outputs(cmd.Context(), configPath, asJSON)
		},
	}
	configFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full outputs document as JSON")

	return cmd
}
