package commands

import (
	"github.com/spf13/cobra"

	"github.com/tierstack/tierstack/cmd/tierctl/handlers"
	"github.com/tierstack/tierstack/internal/config"
)

// Init returns the command that writes a sample configuration.
func Init() *cobra.Command {
	opts := handlers.InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample tierstack.yaml",
		Long: `Write a sample configuration with the default network layout, sizing
and scaling settings. Edit the container images before applying.

Examples:
  tierctl init --project shop --environment dev --region eu-west-1`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Init(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "output", "o", config.DefaultConfigFilename, "Path of the configuration file to write")
	cmd.Flags().StringVar(&opts.Project, "project", "webapp", "Project name, the prefix of every resource name")
	cmd.Flags().StringVar(&opts.Environment, "environment", "dev", "Environment name")
	cmd.Flags().StringVar(&opts.Region, "region", "us-east-1", "AWS region")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing file")

	return cmd
}
