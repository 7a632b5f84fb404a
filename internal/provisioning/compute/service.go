package compute

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

func ensureService(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.ServiceSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	cluster, err := ctx.State.Require(spec.Cluster)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	task, err := ctx.State.Require(spec.TaskDefinition)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	tg, err := ctx.State.Require(spec.TargetGroup)
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

	arn, err := ctx.Cloud.EnsureService(ctx, aws.ServiceOpts{
		Name:              r.Name,
		Cluster:           cluster.ID,
		TaskDefinitionARN: task.ARN,
		DesiredCount:      spec.DesiredCount,
		SubnetIDs:         subnets,
		SecurityGroupIDs:  groups,
		TargetGroupARN:    tg.ARN,
		ContainerName:     spec.ContainerName,
		ContainerPort:     spec.ContainerPort,
		Tags:              r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}

	out := provisioning.Outputs{ID: r.Name, ARN: arn, Port: spec.ContainerPort}
	if listener, ok := ctx.State.Get(spec.Listener); ok {
		out.DNSName = listener.DNSName
	}
	return out, nil
}

func deleteService(ctx *provisioning.Context, r *manifest.Resource) error {
	spec, err := provisioning.SpecOf[manifest.ServiceSpec](r)
	if err != nil {
		return err
	}
	return ctx.Cloud.DeleteService(ctx, ctx.NameOf(spec.Cluster), r.Name)
}

func ensureAutoscaling(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.AutoscalingSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	cluster, err := ctx.State.Require(spec.Cluster)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	service, err := ctx.State.Require(spec.Service)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	arn, err := ctx.Cloud.EnsureScaling(ctx, aws.ScalingOpts{
		PolicyName:  r.Name,
		Cluster:     cluster.ID,
		Service:     service.ID,
		MinCapacity: spec.MinCapacity,
		MaxCapacity: spec.MaxCapacity,
		CPUTarget:   spec.CPUTarget,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: aws.ScalingResourceID(cluster.ID, service.ID), ARN: arn}, nil
}

func deleteAutoscaling(ctx *provisioning.Context, r *manifest.Resource) error {
	spec, err := provisioning.SpecOf[manifest.AutoscalingSpec](r)
	if err != nil {
		return err
	}
	return ctx.Cloud.DeleteScaling(ctx, ctx.NameOf(spec.Cluster), ctx.NameOf(spec.Service), r.Name)
}
