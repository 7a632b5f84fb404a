package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/provisioning/destroy"
)

// ErrNotConfirmed is returned when destroy runs without confirmation.
var ErrNotConfirmed = errors.New("refusing to destroy without --yes")

// Provisioner interface for testing - matches provisioning.Phase.
type Provisioner interface {
	Provision(ctx *provisioning.Context) error
}

// newDestroyProvisioner creates the destroy phase (for testing injection).
var newDestroyProvisioner = func() Provisioner {
	return destroy.NewProvisioner()
}

// Destroy deletes every resource of the stack in reverse dependency order
// and removes the outputs document.
func Destroy(ctx context.Context, configPath string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	pCtx, configPath, err := newStackContext(ctx, configPath)
	if err != nil {
		return err
	}

	stores, err := outputStores(ctx, pCtx.Config, configPath)
	if err != nil {
		return err
	}

	if err := newDestroyProvisioner().Provision(pCtx); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	if err := stores.Delete(ctx); err != nil {
		return fmt.Errorf("stack destroyed but outputs could not be removed: %w", err)
	}

	printf("Stack %s-%s destroyed\n", pCtx.Config.Project, pCtx.Config.Environment)
	return nil
}
