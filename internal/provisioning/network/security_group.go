package network

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// ensureSecurityGroup creates the group and then authorizes its ingress.
// Source groups are dependencies, so their IDs are already in the state.
func ensureSecurityGroup(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.SecurityGroupSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	vpc, err := ctx.State.Require(spec.VPC)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	id, err := ctx.Cloud.EnsureSecurityGroup(ctx, r.Name, vpc.ID, spec.Description, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	rules, err := ingressPermissions(ctx, spec.Ingress)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	if len(rules) > 0 {
		if err := ctx.Cloud.AuthorizeIngress(ctx, id, rules); err != nil {
			return provisioning.Outputs{}, fmt.Errorf("failed to authorize ingress on %s: %w", r.Name, err)
		}
	}
	return provisioning.Outputs{ID: id}, nil
}

func ingressPermissions(ctx *provisioning.Context, rules []manifest.IngressRule) ([]aws.IngressPermission, error) {
	perms := make([]aws.IngressPermission, 0, len(rules))
	for _, rule := range rules {
		perm := aws.IngressPermission{
			Port:        rule.Port,
			CIDR:        rule.CIDR,
			Description: rule.Description,
		}
		if rule.SourceGroup != "" {
			src, err := ctx.State.Require(rule.SourceGroup)
			if err != nil {
				return nil, err
			}
			perm.SourceGroupID = src.ID
		}
		perms = append(perms, perm)
	}
	return perms, nil
}

func deleteSecurityGroup(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteSecurityGroup(ctx, r.Name)
}
