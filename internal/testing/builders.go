package testing

import (
	"maps"
	"slices"

	"github.com/tierstack/tierstack/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder from the sample config of
// project "shop", environment "test" in eu-west-1.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: *config.Sample("shop", "test", "eu-west-1")}
}

// WithProject sets the project name.
func (b *ConfigBuilder) WithProject(project string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Project = project
	return nb
}

// WithEnvironment sets the environment name.
func (b *ConfigBuilder) WithEnvironment(env string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Environment = env
	return nb
}

// WithRegion sets the region and derives two availability zones from it.
func (b *ConfigBuilder) WithRegion(region string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Region = region
	nb.cfg.Network.AvailabilityZones = []string{region + "a", region + "b"}
	return nb
}

// WithAvailabilityZones replaces the availability zones.
func (b *ConfigBuilder) WithAvailabilityZones(zones ...string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Network.AvailabilityZones = slices.Clone(zones)
	return nb
}

// WithVPCCIDR sets the VPC CIDR.
func (b *ConfigBuilder) WithVPCCIDR(cidr string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Network.VPCCIDR = cidr
	return nb
}

// WithImages sets the frontend and backend images.
func (b *ConfigBuilder) WithImages(frontend, backend string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Frontend.Image = frontend
	nb.cfg.Backend.Image = backend
	return nb
}

// WithMultiAZ toggles the database standby.
func (b *ConfigBuilder) WithMultiAZ(enabled bool) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Database.MultiAZ = enabled
	return nb
}

// WithStateBucket sets the outputs bucket.
func (b *ConfigBuilder) WithStateBucket(bucket string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.State.Bucket = bucket
	return nb
}

// WithTag adds an extra resource tag.
func (b *ConfigBuilder) WithTag(key, value string) *ConfigBuilder {
	nb := b.clone()
	if nb.cfg.Tags == nil {
		nb.cfg.Tags = map[string]string{}
	}
	nb.cfg.Tags[key] = value
	return nb
}

// Build returns the constructed config.
func (b *ConfigBuilder) Build() *config.Config {
	return &b.clone().cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	c := b.cfg
	c.Network.AvailabilityZones = slices.Clone(b.cfg.Network.AvailabilityZones)
	c.Frontend.Environment = maps.Clone(b.cfg.Frontend.Environment)
	c.Backend.Environment = maps.Clone(b.cfg.Backend.Environment)
	c.Tags = maps.Clone(b.cfg.Tags)
	if days := b.cfg.Database.BackupRetentionDays; days != nil {
		d := *days
		c.Database.BackupRetentionDays = &d
	}
	return &ConfigBuilder{cfg: c}
}

// MinimalConfig returns a valid config for simple tests.
func MinimalConfig() *config.Config {
	return NewConfigBuilder().Build()
}
