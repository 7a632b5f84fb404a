package network

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

func ensureVPC(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.VPCSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	id, err := ctx.Cloud.EnsureVPC(ctx, r.Name, spec.CIDR, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id}, nil
}

func deleteVPC(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteVPC(ctx, r.Name)
}

func ensureInternetGateway(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.InternetGatewaySpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	vpc, err := ctx.State.Require(spec.VPC)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	id, err := ctx.Cloud.EnsureInternetGateway(ctx, r.Name, vpc.ID, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id}, nil
}

func deleteInternetGateway(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteInternetGateway(ctx, r.Name)
}

func ensureSubnet(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.SubnetSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	vpc, err := ctx.State.Require(spec.VPC)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	id, err := ctx.Cloud.EnsureSubnet(ctx, aws.SubnetOpts{
		Name:             r.Name,
		VPCID:            vpc.ID,
		CIDR:             spec.CIDR,
		AvailabilityZone: spec.AvailabilityZone,
		Public:           spec.Public,
		Tags:             r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id}, nil
}

func deleteSubnet(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteSubnet(ctx, r.Name)
}
