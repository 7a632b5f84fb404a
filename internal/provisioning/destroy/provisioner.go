package destroy

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/provisioning/compute"
	"github.com/tierstack/tierstack/internal/provisioning/data"
	"github.com/tierstack/tierstack/internal/provisioning/edge"
	"github.com/tierstack/tierstack/internal/provisioning/network"
)

// Provisioner handles stack destruction.
type Provisioner struct {
	handlers provisioning.Handlers
}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{handlers: Handlers()}
}

// Handlers returns the handlers of every tier.
func Handlers() provisioning.Handlers {
	return provisioning.Merge(network.Handlers(), data.Handlers(), edge.Handlers(), compute.Handlers())
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "destroy"
}

// Provision destroys every resource of the graph. Resources that are
// already gone are skipped by their handlers, so an interrupted destroy
// can simply be run again.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	ctx.Observer.Printf("[Destroy] Starting destruction of %s-%s", ctx.Config.Project, ctx.Config.Environment)

	if err := provisioning.Destroy(ctx, p.Name(), ctx.Graph.Resources(), p.handlers); err != nil {
		return fmt.Errorf("failed to destroy stack resources: %w", err)
	}

	ctx.Observer.Printf("[Destroy] Stack %s-%s destroyed", ctx.Config.Project, ctx.Config.Environment)
	return nil
}
