// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the tierctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tierctl",
		Short: "Provision a three-tier web stack on AWS",
		Long: `tierctl builds the resource graph of a three-tier AWS stack (public web
tier, private API tier, PostgreSQL database tier) from one YAML file and
converges AWS to it in dependency order.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Graph())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Outputs())
	cmd.AddCommand(Version())

	return cmd
}

// configFlag binds the shared --config flag.
func configFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", "", "Path to configuration file (default: tierstack.yaml)")
}
