package compute

import (
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

func ensureLogGroup(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.LogGroupSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.EnsureLogGroup(ctx, r.Name, spec.RetentionDays, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: arn}, nil
}

func deleteLogGroup(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteLogGroup(ctx, r.Name)
}

// ensureExecutionRole grants read access to exactly the secrets the tasks
// reference.
func ensureExecutionRole(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.ExecutionRoleSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arns := make([]string, 0, len(spec.Secrets))
	for _, key := range spec.Secrets {
		out, err := ctx.State.Require(key)
		if err != nil {
			return provisioning.Outputs{}, err
		}
		arns = append(arns, out.ARN)
	}
	arn, err := ctx.Cloud.EnsureExecutionRole(ctx, r.Name, arns, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: arn}, nil
}

func deleteExecutionRole(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteRole(ctx, r.Name)
}

func ensureCluster(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.ClusterSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.EnsureCluster(ctx, r.Name, spec.ContainerInsights, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: arn}, nil
}

func deleteCluster(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteCluster(ctx, r.Name)
}
