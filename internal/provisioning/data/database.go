package data

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

func ensureDBSubnetGroup(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.DBSubnetGroupSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	subnets, err := ctx.State.IDs(spec.Subnets)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	id, err := ctx.Cloud.EnsureDBSubnetGroup(ctx, r.Name, spec.Description, subnets, r.Tags)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: id}, nil
}

func deleteDBSubnetGroup(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteDBSubnetGroup(ctx, r.Name)
}

// ensureDBInstance reads the master password from the secret so that it
// never appears in the manifest or the outputs.
func ensureDBInstance(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.DBInstanceSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	subnetGroup, err := ctx.State.Require(spec.SubnetGroup)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	groups, err := ctx.State.IDs(spec.SecurityGroups)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	secret, err := ctx.State.Require(spec.Secret)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	creds, err := ctx.Cloud.GetCredentials(ctx, secret.ID)
	if err != nil {
		return provisioning.Outputs{}, fmt.Errorf("failed to read master credentials: %w", err)
	}

	db, err := ctx.Cloud.EnsureDBInstance(ctx, aws.DBInstanceOpts{
		Identifier:          r.Name,
		Engine:              spec.Engine,
		EngineVersion:       spec.EngineVersion,
		InstanceClass:       spec.InstanceClass,
		AllocatedStorage:    spec.AllocatedStorage,
		DatabaseName:        spec.DatabaseName,
		Username:            creds.Username,
		Password:            creds.Password,
		Port:                spec.Port,
		MultiAZ:             spec.MultiAZ,
		BackupRetentionDays: spec.BackupRetentionDays,
		SubnetGroupName:     subnetGroup.ID,
		SecurityGroupIDs:    groups,
		Tags:                r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: db.ARN, Endpoint: db.Address, Port: db.Port}, nil
}

func deleteDBInstance(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteDBInstance(ctx, r.Name)
}
