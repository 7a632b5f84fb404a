package edge

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

func ensureLoadBalancer(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.LoadBalancerSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	subnets, err := ctx.State.IDs(spec.Subnets)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	groups, err := ctx.State.IDs(spec.SecurityGroups)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	lb, err := ctx.Cloud.EnsureLoadBalancer(ctx, aws.LoadBalancerOpts{
		Name:             r.Name,
		Internal:         spec.Internal,
		SubnetIDs:        subnets,
		SecurityGroupIDs: groups,
		Tags:             r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: lb.ARN, DNSName: lb.DNSName, Port: manifest.ListenerPort}, nil
}

// deleteLoadBalancer also removes the balancer's listeners.
func deleteLoadBalancer(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteLoadBalancer(ctx, r.Name)
}

func ensureTargetGroup(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.TargetGroupSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	vpc, err := ctx.State.Require(spec.VPC)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.EnsureTargetGroup(ctx, aws.TargetGroupOpts{
		Name:       r.Name,
		VPCID:      vpc.ID,
		Port:       spec.Port,
		HealthPath: spec.HealthPath,
		Tags:       r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: arn, Port: spec.Port}, nil
}

func deleteTargetGroup(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteTargetGroup(ctx, r.Name)
}

func ensureListener(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.ListenerSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	lb, err := ctx.State.Require(spec.LoadBalancer)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	tg, err := ctx.State.Require(spec.TargetGroup)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.EnsureListener(ctx, lb.ARN, tg.ARN, spec.Port, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ARN: arn, DNSName: lb.DNSName, Port: spec.Port}, nil
}

// deleteListener addresses the listener through its load balancer, since
// listeners have no name of their own.
func deleteListener(ctx *provisioning.Context, r *manifest.Resource) error {
	spec, err := provisioning.SpecOf[manifest.ListenerSpec](r)
	if err != nil {
		return err
	}
	return ctx.Cloud.DeleteListener(ctx, ctx.NameOf(spec.LoadBalancer), spec.Port)
}
