package data

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// Provisioner applies the data tier.
type Provisioner struct {
	handlers provisioning.Handlers
}

// NewProvisioner creates a new data provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{handlers: Handlers()}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return string(manifest.TierData)
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return provisioning.Apply(ctx, p.Name(), ctx.Graph.ByTier(manifest.TierData), p.handlers)
}

// Handlers returns the handlers of every data kind.
func Handlers() provisioning.Handlers {
	return provisioning.Handlers{
		manifest.KindSecret:           provisioning.HandlerFuncs{EnsureFunc: ensureSecret, DeleteFunc: deleteSecret},
		manifest.KindDBSubnetGroup:    provisioning.HandlerFuncs{EnsureFunc: ensureDBSubnetGroup, DeleteFunc: deleteDBSubnetGroup},
		manifest.KindDBInstance:       provisioning.HandlerFuncs{EnsureFunc: ensureDBInstance, DeleteFunc: deleteDBInstance},
		manifest.KindConnectionSecret: provisioning.HandlerFuncs{EnsureFunc: ensureConnectionSecret},
	}
}
