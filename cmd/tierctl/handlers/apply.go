package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/provisioning/compute"
	"github.com/tierstack/tierstack/internal/provisioning/data"
	"github.com/tierstack/tierstack/internal/provisioning/destroy"
	"github.com/tierstack/tierstack/internal/provisioning/edge"
	"github.com/tierstack/tierstack/internal/provisioning/network"
)

// newApplyPipeline returns the phases of apply: validation, then the tiers
// in dependency order.
func newApplyPipeline() *provisioning.Pipeline {
	return provisioning.NewPipeline(
		provisioning.NewValidationPhase(destroy.Handlers()),
		network.NewProvisioner(),
		data.NewProvisioner(),
		edge.NewProvisioner(),
		compute.NewProvisioner(),
	)
}

// Apply converges AWS to the stack described by the configuration.
//
// Outputs are saved even when a phase fails, so that a partial apply still
// records what exists; a rerun continues where it stopped because every
// handler ensures create-if-missing.
func Apply(ctx context.Context, configPath string) error {
	pCtx, configPath, err := newStackContext(ctx, configPath)
	if err != nil {
		return err
	}
	cfg := pCtx.Config

	stores, err := outputStores(ctx, cfg, configPath)
	if err != nil {
		return err
	}

	pCtx.Observer.Printf("Applying stack %s-%s in %s (%d resources)",
		cfg.Project, cfg.Environment, cfg.Region, pCtx.Graph.Len())

	runErr := newApplyPipeline().Run(pCtx)

	var saveErr error
	if pCtx.State.Len() > 0 {
		out := provisioning.CollectOutputs(pCtx)
		if saveErr = stores.Save(ctx, out); saveErr != nil {
			saveErr = fmt.Errorf("failed to save outputs: %w", saveErr)
		}
		if runErr == nil {
			printOutputs(out)
		}
	}

	if runErr != nil {
		return errors.Join(fmt.Errorf("apply failed: %w", runErr), saveErr)
	}
	return saveErr
}

// newStackContext loads the configuration, builds its graph and creates
// the provisioning context around the AWS client.
func newStackContext(ctx context.Context, configPath string) (*provisioning.Context, string, error) {
	cfg, configPath, err := loadConfig(configPath)
	if err != nil {
		return nil, "", err
	}

	graph, err := manifest.Build(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build resource graph: %w", err)
	}

	timeouts := loadTimeouts()
	cloud, err := newCloud(ctx, cfg, timeouts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create AWS client: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}

	pCtx := provisioning.NewContext(ctx, cfg, graph, cloud, logger)
	pCtx.Timeouts = timeouts
	return pCtx, configPath, nil
}
