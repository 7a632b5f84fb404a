package compute

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// ensureTaskDefinition registers the family. AWS only gets a new revision
// when the resolved definition changed.
func ensureTaskDefinition(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.TaskDefinitionSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	opts, err := taskDefinitionOpts(ctx, r, spec)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.RegisterTaskDefinition(ctx, opts)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: aws.Fingerprint(opts), ARN: arn, Port: spec.Port}, nil
}

func taskDefinitionOpts(ctx *provisioning.Context, r *manifest.Resource, spec manifest.TaskDefinitionSpec) (aws.TaskDefinitionOpts, error) {
	role, err := ctx.State.Require(spec.ExecutionRole)
	if err != nil {
		return aws.TaskDefinitionOpts{}, err
	}
	logs, err := ctx.State.Require(spec.LogGroup)
	if err != nil {
		return aws.TaskDefinitionOpts{}, err
	}

	env := make(map[string]string, len(spec.Environment)+len(spec.Endpoints))
	for k, v := range spec.Environment {
		env[k] = v
	}
	for _, ep := range spec.Endpoints {
		lb, err := ctx.State.Require(ep.LoadBalancer)
		if err != nil {
			return aws.TaskDefinitionOpts{}, err
		}
		if lb.DNSName == "" {
			return aws.TaskDefinitionOpts{}, fmt.Errorf("load balancer %s has no DNS name for %s", ep.LoadBalancer, ep.Name)
		}
		env[ep.Name] = "http://" + lb.DNSName
	}

	var secrets map[string]string
	if len(spec.Secrets) > 0 {
		secrets = make(map[string]string, len(spec.Secrets))
		for _, s := range spec.Secrets {
			out, err := ctx.State.Require(s.Secret)
			if err != nil {
				return aws.TaskDefinitionOpts{}, err
			}
			secrets[s.Name] = out.ARN
		}
	}

	return aws.TaskDefinitionOpts{
		Family:           r.Name,
		ContainerName:    spec.ContainerName,
		Image:            spec.Image,
		CPU:              spec.CPU,
		Memory:           spec.Memory,
		Port:             spec.Port,
		ExecutionRoleARN: role.ARN,
		LogGroup:         logs.ID,
		Environment:      env,
		Secrets:          secrets,
		Tags:             r.Tags,
	}, nil
}

func deregisterTaskDefinition(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeregisterTaskDefinitions(ctx, r.Name)
}
