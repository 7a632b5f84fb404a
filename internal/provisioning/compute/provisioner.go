package compute

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// Provisioner applies the compute tier.
type Provisioner struct {
	handlers provisioning.Handlers
}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{handlers: Handlers()}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return string(manifest.TierCompute)
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return provisioning.Apply(ctx, p.Name(), ctx.Graph.ByTier(manifest.TierCompute), p.handlers)
}

// Handlers returns the handlers of every compute kind.
func Handlers() provisioning.Handlers {
	return provisioning.Handlers{
		manifest.KindLogGroup:       provisioning.HandlerFuncs{EnsureFunc: ensureLogGroup, DeleteFunc: deleteLogGroup},
		manifest.KindExecutionRole:  provisioning.HandlerFuncs{EnsureFunc: ensureExecutionRole, DeleteFunc: deleteExecutionRole},
		manifest.KindCluster:        provisioning.HandlerFuncs{EnsureFunc: ensureCluster, DeleteFunc: deleteCluster},
		manifest.KindTaskDefinition: provisioning.HandlerFuncs{EnsureFunc: ensureTaskDefinition, DeleteFunc: deregisterTaskDefinition},
		manifest.KindService:        provisioning.HandlerFuncs{EnsureFunc: ensureService, DeleteFunc: deleteService},
		manifest.KindAutoscaling:    provisioning.HandlerFuncs{EnsureFunc: ensureAutoscaling, DeleteFunc: deleteAutoscaling},
	}
}
