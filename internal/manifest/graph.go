package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tierstack/tierstack/internal/util/naming"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("dependency cycle")

// nameLimits is the maximum physical name length per kind.
var nameLimits = map[Kind]int{
	KindVPC:              naming.MaxTagValue,
	KindInternetGateway:  naming.MaxTagValue,
	KindSubnet:           naming.MaxTagValue,
	KindElasticIP:        naming.MaxTagValue,
	KindNATGateway:       naming.MaxTagValue,
	KindRouteTable:       naming.MaxTagValue,
	KindSecurityGroup:    naming.MaxSecurityGroup,
	KindSecret:           naming.MaxSecret,
	KindDBSubnetGroup:    naming.MaxDBSubnetGroup,
	KindDBInstance:       naming.MaxDBInstance,
	KindConnectionSecret: naming.MaxSecret,
	KindLogGroup:         naming.MaxLogGroup,
	KindExecutionRole:    naming.MaxRole,
	KindCluster:          naming.MaxCluster,
	KindLoadBalancer:     naming.MaxLoadBalancer,
	KindTargetGroup:      naming.MaxTargetGroup,
	KindListener:         naming.MaxTagValue,
	KindTaskDefinition:   naming.MaxTaskFamily,
	KindService:          naming.MaxService,
	KindAutoscaling:      naming.MaxPolicyName,
}

// namePatterns restricts the characters of kinds whose names AWS checks
// beyond length. EC2 resources are named by tag and accept anything.
var namePatterns = map[Kind]*regexp.Regexp{
	KindLoadBalancer: regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`),
	KindTargetGroup:  regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`),
	KindDBInstance:   regexp.MustCompile(`^[A-Za-z](?:-?[A-Za-z0-9])*$`),
}

// NameLimit returns the maximum name length of kind, or 0 when unknown.
func NameLimit(kind Kind) int {
	return nameLimits[kind]
}

// Graph is an ordered set of resources. Insertion order is kept for
// display; every ordering the provisioner relies on is derived from keys.
type Graph struct {
	resources []*Resource
	index     map[string]*Resource
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]*Resource)}
}

// Add appends resources and derives their DependsOn from their specs.
// Duplicate keys are kept and reported by Validate; Get returns the first.
func (g *Graph) Add(resources ...*Resource) {
	for _, r := range resources {
		r.DependsOn = dependsOn(r.Spec)
		g.resources = append(g.resources, r)
		if _, exists := g.index[r.Key]; !exists {
			g.index[r.Key] = r
		}
	}
}

// Get returns the resource with the given key.
func (g *Graph) Get(key string) (*Resource, bool) {
	r, ok := g.index[key]
	return r, ok
}

// Len returns the number of resources.
func (g *Graph) Len() int { return len(g.resources) }

// Resources returns all resources in insertion order.
func (g *Graph) Resources() []*Resource {
	out := make([]*Resource, len(g.resources))
	copy(out, g.resources)
	return out
}

// ByTier returns the resources of one tier in insertion order.
func (g *Graph) ByTier(tier Tier) []*Resource {
	var out []*Resource
	for _, r := range g.resources {
		if r.Tier == tier {
			out = append(out, r)
		}
	}
	return out
}

// ByKind returns the resources of one kind in insertion order.
func (g *Graph) ByKind(kind Kind) []*Resource {
	var out []*Resource
	for _, r := range g.resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Dependents returns the keys of resources that depend on key, sorted.
func (g *Graph) Dependents(key string) []string {
	var out []string
	for _, r := range g.resources {
		for _, dep := range r.DependsOn {
			if dep == key {
				out = append(out, r.Key)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks the graph for unknown references, duplicate keys,
// duplicate physical names within a kind, names over the kind's limit and
// dependency cycles. All problems are reported together.
func (g *Graph) Validate() error {
	var errs []error

	keys := make(map[string]bool)
	names := make(map[Kind]map[string]string)
	for _, r := range g.resources {
		if r.Key == "" {
			errs = append(errs, fmt.Errorf("%s %q has an empty key", r.Kind, r.Name))
			continue
		}
		if keys[r.Key] {
			errs = append(errs, fmt.Errorf("duplicate key %q", r.Key))
		}
		keys[r.Key] = true

		if r.Spec == nil {
			errs = append(errs, fmt.Errorf("%s: missing spec", r.Key))
		}
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("%s: empty name", r.Key))
		}
		limit, known := nameLimits[r.Kind]
		if !known {
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", r.Key, r.Kind))
		} else if len(r.Name) > limit {
			errs = append(errs, fmt.Errorf("%s: name %q is %d characters, limit for %s is %d",
				r.Key, r.Name, len(r.Name), r.Kind, limit))
		}
		if err := checkNamePattern(r); err != nil {
			errs = append(errs, err)
		}

		if names[r.Kind] == nil {
			names[r.Kind] = make(map[string]string)
		}
		if other, dup := names[r.Kind][r.Name]; dup && r.Name != "" {
			errs = append(errs, fmt.Errorf("%s and %s share the %s name %q", other, r.Key, r.Kind, r.Name))
		} else {
			names[r.Kind][r.Name] = r.Key
		}
	}

	for _, r := range g.resources {
		for _, dep := range r.DependsOn {
			if _, ok := g.index[dep]; !ok {
				errs = append(errs, fmt.Errorf("%s references unknown resource %q", r.Key, dep))
			}
		}
	}

	if len(errs) == 0 {
		if _, err := g.Levels(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkNamePattern(r *Resource) error {
	pattern, ok := namePatterns[r.Kind]
	if !ok || r.Name == "" {
		return nil
	}
	if !pattern.MatchString(r.Name) {
		return fmt.Errorf("%s: name %q is not a valid %s name", r.Key, r.Name, r.Kind)
	}
	if r.Kind == KindLoadBalancer && strings.HasPrefix(r.Name, "internal-") {
		return fmt.Errorf("%s: load balancer name %q must not start with internal-", r.Key, r.Name)
	}
	return nil
}

// Levels layers the graph with Kahn's algorithm: level 0 holds resources
// without dependencies, level n those whose dependencies all lie in
// earlier levels. Resources within a level are sorted by key.
// Unknown references are ignored here; Validate reports them.
func (g *Graph) Levels() ([][]*Resource, error) {
	indegree := make(map[string]int, len(g.index))
	dependents := make(map[string][]string, len(g.index))
	for key, r := range g.index {
		indegree[key] += 0
		for _, dep := range r.DependsOn {
			if _, ok := g.index[dep]; !ok {
				continue
			}
			indegree[key]++
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var current []string
	for key, d := range indegree {
		if d == 0 {
			current = append(current, key)
		}
	}

	var levels [][]*Resource
	visited := 0
	for len(current) > 0 {
		sort.Strings(current)
		level := make([]*Resource, 0, len(current))
		var next []string
		for _, key := range current {
			level = append(level, g.index[key])
			visited++
			for _, dependent := range dependents[key] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		levels = append(levels, level)
		current = next
	}

	if visited != len(g.index) {
		var stuck []string
		for key, d := range indegree {
			if d > 0 {
				stuck = append(stuck, key)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w between %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return levels, nil
}

// Order returns the resources in a topological order: dependencies first.
func (g *Graph) Order() ([]*Resource, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	var out []*Resource
	for _, level := range levels {
		out = append(out, level...)
	}
	return out, nil
}

// ReverseOrder returns the resources with dependents before their
// dependencies, the order in which they can be deleted.
func (g *Graph) ReverseOrder() ([]*Resource, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// ReverseLevels returns Levels last to first.
func (g *Graph) ReverseLevels() ([][]*Resource, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels, nil
}
