package handlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/tierstack/tierstack/internal/config"
)

// InitOptions are the values written into a new configuration.
type InitOptions struct {
	Path        string
	Project     string
	Environment string
	Region      string
	Force       bool
}

// Init writes a sample configuration. An existing file is only replaced
// with Force.
func Init(opts InitOptions) error {
	if opts.Path == "" {
		opts.Path = config.DefaultConfigFilename
	}

	if !opts.Force {
		if _, err := os.Stat(opts.Path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", opts.Path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", opts.Path, err)
		}
	}

	cfg := config.Sample(opts.Project, opts.Environment, opts.Region)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid init values: %w", err)
	}
	if err := config.WriteFile(cfg, opts.Path); err != nil {
		return err
	}

	printf("Wrote %s for %s-%s in %s\n", opts.Path, cfg.Project, cfg.Environment, cfg.Region)
	printf("Next steps:\n")
	printf("  1. Set frontend.image and backend.image to your container images\n")
	printf("  2. Review the plan:  tierctl plan -c %s\n", opts.Path)
	printf("  3. Deploy:           tierctl apply -c %s\n", opts.Path)
	return nil
}
