package edge

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// Provisioner applies the edge tier.
type Provisioner struct {
	handlers provisioning.Handlers
}

// NewProvisioner creates a new edge provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{handlers: Handlers()}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return string(manifest.TierEdge)
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return provisioning.Apply(ctx, p.Name(), ctx.Graph.ByTier(manifest.TierEdge), p.handlers)
}

// Handlers returns the handlers of every edge kind.
func Handlers() provisioning.Handlers {
	return provisioning.Handlers{
		manifest.KindLoadBalancer: provisioning.HandlerFuncs{EnsureFunc: ensureLoadBalancer, DeleteFunc: deleteLoadBalancer},
		manifest.KindTargetGroup:  provisioning.HandlerFuncs{EnsureFunc: ensureTargetGroup, DeleteFunc: deleteTargetGroup},
		manifest.KindListener:     provisioning.HandlerFuncs{EnsureFunc: ensureListener, DeleteFunc: deleteListener},
	}
}
