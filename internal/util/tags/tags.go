// Package tags provides consistent tagging for AWS resources.
//
// Every resource created by tierctl carries the project, environment and
// managed-by tags, which is how existing resources are found again and how
// destroy scopes its deletions to one stack.
package tags

import "sort"

// Standard tag keys.
const (
	KeyName        = "Name"
	KeyProject     = "tierstack:project"
	KeyEnvironment = "tierstack:environment"
	KeyTier        = "tierstack:tier"
	KeyManagedBy   = "tierstack:managed-by"

	ManagedByTierctl = "tierctl"
)

// Builder provides a fluent interface for building resource tags.
type Builder struct {
	tags map[string]string
}

// NewBuilder creates a builder with project, environment and managed-by set.
func NewBuilder(project, environment string) *Builder {
	return &Builder{
		tags: map[string]string{
			KeyProject:     project,
			KeyEnvironment: environment,
			KeyManagedBy:   ManagedByTierctl,
		},
	}
}

// WithName sets the Name tag, which the console shows and lookups filter on.
func (b *Builder) WithName(name string) *Builder {
	b.tags[KeyName] = name
	return b
}

// WithTier records which tier of the stack the resource belongs to.
func (b *Builder) WithTier(tier string) *Builder {
	if tier != "" {
		b.tags[KeyTier] = tier
	}
	return b
}

// Merge adds user supplied tags. Standard keys are not overridden.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		if _, reserved := b.tags[k]; reserved {
			continue
		}
		b.tags[k] = v
	}
	return b
}

// Build returns a copy of the tags map.
func (b *Builder) Build() map[string]string {
	result := make(map[string]string, len(b.tags))
	for k, v := range b.tags {
		result[k] = v
	}
	return result
}

// Keys returns the tag keys of m in sorted order. SDK tag slices are built
// in this order so requests are stable.
func Keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
