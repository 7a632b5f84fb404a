package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
)

// Apply returns the command that creates or updates the stack.
//
// Environment variables:
//
//	AWS_PROFILE, AWS_REGION, AWS_ACCESS_KEY_ID, ...: standard AWS credentials
//	TIERSTACK_TIMEOUT_*, TIERSTACK_RETRY_*: provisioning timeouts
func Apply() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the stack",
		Long: `Create or update the stack described by the configuration.

Resources are ensured tier by tier (network, data, edge, compute). Existing
resources are kept; task definitions are re-registered only when their
container settings change. Outputs are written to .tierstack/outputs.json
and, when state.bucket is set, to S3.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath)
		},
	}
	configFlag(cmd, &configPath)

	return cmd
}
