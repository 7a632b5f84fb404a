package network

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// Provisioner applies the network tier.
type Provisioner struct {
	handlers provisioning.Handlers
}

// NewProvisioner creates a new network provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{handlers: Handlers()}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return string(manifest.TierNetwork)
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return provisioning.Apply(ctx, p.Name(), ctx.Graph.ByTier(manifest.TierNetwork), p.handlers)
}

// Handlers returns the handlers of every network kind.
func Handlers() provisioning.Handlers {
	return provisioning.Handlers{
		manifest.KindVPC:             provisioning.HandlerFuncs{EnsureFunc: ensureVPC, DeleteFunc: deleteVPC},
		manifest.KindInternetGateway: provisioning.HandlerFuncs{EnsureFunc: ensureInternetGateway, DeleteFunc: deleteInternetGateway},
		manifest.KindSubnet:          provisioning.HandlerFuncs{EnsureFunc: ensureSubnet, DeleteFunc: deleteSubnet},
		manifest.KindElasticIP:       provisioning.HandlerFuncs{EnsureFunc: ensureElasticIP, DeleteFunc: releaseElasticIP},
		manifest.KindNATGateway:      provisioning.HandlerFuncs{EnsureFunc: ensureNATGateway, DeleteFunc: deleteNATGateway},
		manifest.KindRouteTable:      provisioning.HandlerFuncs{EnsureFunc: ensureRouteTable, DeleteFunc: deleteRouteTable},
		manifest.KindSecurityGroup:   provisioning.HandlerFuncs{EnsureFunc: ensureSecurityGroup, DeleteFunc: deleteSecurityGroup},
	}
}
