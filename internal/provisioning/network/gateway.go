package network

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// ensureElasticIP exposes the allocation ID as ID and the public address
// as Endpoint.
func ensureElasticIP(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	addr, err := ctx.Cloud.EnsureElasticIP(ctx, r.Name, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: addr.AllocationID, Endpoint: addr.PublicIP}, nil
}

func releaseElasticIP(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.ReleaseElasticIP(ctx, r.Name)
}

func ensureNATGateway(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.NATGatewaySpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	subnet, err := ctx.State.Require(spec.Subnet)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	eip, err := ctx.State.Require(spec.ElasticIP)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	id, err := ctx.Cloud.EnsureNATGateway(ctx, r.Name, subnet.ID, eip.ID, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id, Endpoint: eip.Endpoint}, nil
}

func deleteNATGateway(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteNATGateway(ctx, r.Name)
}

func ensureRouteTable(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.RouteTableSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	if (spec.InternetGateway == "") == (spec.NATGateway == "") {
		return provisioning.Outputs{}, fmt.Errorf("route table %s needs exactly one gateway", r.Key)
	}

	vpc, err := ctx.State.Require(spec.VPC)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	subnets, err := ctx.State.IDs(spec.Subnets)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	opts := aws.RouteTableOpts{
		Name:      r.Name,
		VPCID:     vpc.ID,
		SubnetIDs: subnets,
		Tags:      r.Tags,
	}
	if spec.InternetGateway != "" {
		igw, err := ctx.State.Require(spec.InternetGateway)
		if err != nil {
			return provisioning.Outputs{}, err
		}
		opts.GatewayID = igw.ID
	} else {
		nat, err := ctx.State.Require(spec.NATGateway)
		if err != nil {
			return provisioning.Outputs{}, err
		}
		opts.NATGatewayID = nat.ID
	}

	id, err := ctx.Cloud.EnsureRouteTable(ctx, opts)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id}, nil
}

func deleteRouteTable(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteRouteTable(ctx, r.Name)
}
