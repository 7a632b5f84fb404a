package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
)

// Graph returns the command that exports the resource graph.
func Graph() *cobra.Command {
	var configPath, format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the resource graph",
		Long: `Export the resource graph as Graphviz dot, JSON or YAML.

Examples:
  tierctl graph | dot -Tsvg > stack.svg
  tierctl graph --format yaml`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Graph(configPath, format)
		},
	}
	configFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot, json or yaml")

	return cmd
}
