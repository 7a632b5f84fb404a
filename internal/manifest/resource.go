package manifest

import (
	"sort"
)

// Kind identifies the type of a cloud resource.
type Kind string

// Resource kinds, roughly in the order they are created.
const (
	KindVPC              Kind = "vpc"
	KindInternetGateway  Kind = "internet-gateway"
	KindSubnet           Kind = "subnet"
	KindElasticIP        Kind = "elastic-ip"
	KindNATGateway       Kind = "nat-gateway"
	KindRouteTable       Kind = "route-table"
	KindSecurityGroup    Kind = "security-group"
	KindSecret           Kind = "secret"
	KindDBSubnetGroup    Kind = "db-subnet-group"
	KindDBInstance       Kind = "db-instance"
	KindConnectionSecret Kind = "connection-secret"
	KindLogGroup         Kind = "log-group"
	KindExecutionRole    Kind = "execution-role"
	KindCluster          Kind = "ecs-cluster"
	KindLoadBalancer     Kind = "load-balancer"
	KindTargetGroup      Kind = "target-group"
	KindListener         Kind = "listener"
	KindTaskDefinition   Kind = "task-definition"
	KindService          Kind = "ecs-service"
	KindAutoscaling      Kind = "autoscaling"
)

// Kinds returns every kind in creation order.
func Kinds() []Kind {
	return []Kind{
		KindVPC, KindInternetGateway, KindSubnet, KindElasticIP, KindNATGateway,
		KindRouteTable, KindSecurityGroup, KindSecret, KindDBSubnetGroup,
		KindDBInstance, KindConnectionSecret, KindLogGroup, KindExecutionRole,
		KindCluster, KindLoadBalancer, KindTargetGroup, KindListener,
		KindTaskDefinition, KindService, KindAutoscaling,
	}
}

// Tier groups resources by the part of the stack they belong to.
type Tier string

// Stack tiers.
const (
	TierNetwork Tier = "network"
	TierData    Tier = "data"
	TierCompute Tier = "compute"
	TierEdge    Tier = "edge"
)

// Tiers returns the tiers in provisioning order.
func Tiers() []Tier {
	return []Tier{TierNetwork, TierData, TierEdge, TierCompute}
}

// Spec is the kind-specific desired state of a resource.
type Spec interface {
	// Refs returns the keys of the resources this spec references.
	Refs() []string
}

// Resource is one node of the graph.
type Resource struct {
	// Key identifies the resource inside the graph, e.g. "subnet/app-1".
	Key  string `json:"key"`
	Kind Kind   `json:"kind"`
	Tier Tier   `json:"tier"`

	// Name is the physical name in AWS, already shortened to the kind's limit.
	Name string `json:"name"`

	Spec Spec `json:"spec,omitempty"`

	// DependsOn is derived from Spec.Refs when the resource is added.
	DependsOn []string `json:"dependsOn,omitempty"`

	Tags map[string]string `json:"tags,omitempty"`
}

// Key builds a resource key from a kind and a local identifier.
func Key(kind Kind, id string) string {
	return string(kind) + "/" + id
}

func dependsOn(spec Spec) []string {
	if spec == nil {
		return nil
	}
	seen := make(map[string]bool)
	var deps []string
	for _, ref := range spec.Refs() {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		deps = append(deps, ref)
	}
	sort.Strings(deps)
	return deps
}
