package data

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
)

// ensureSecret exposes the secret name as ID, which is what Secrets
// Manager reads take, and the ARN for IAM and task definitions.
func ensureSecret(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.SecretSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	arn, err := ctx.Cloud.EnsureSecret(ctx, aws.SecretOpts{
		Name:           r.Name,
		Description:    spec.Description,
		Username:       spec.Username,
		Engine:         spec.Engine,
		PasswordLength: spec.PasswordLength,
		Tags:           r.Tags,
	})
	if err != nil {
		return provisioning.Outputs{}, err
	}
	return provisioning.Outputs{ID: r.Name, ARN: arn}, nil
}

func deleteSecret(ctx *provisioning.Context, r *manifest.Resource) error {
	return ctx.Cloud.DeleteSecret(ctx, r.Name)
}

// ensureConnectionSecret writes host, port and database name next to the
// generated credentials. The secret itself is deleted by its own handler.
func ensureConnectionSecret(ctx *provisioning.Context, r *manifest.Resource) (provisioning.Outputs, error) {
	spec, err := provisioning.SpecOf[manifest.ConnectionSecretSpec](r)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	secret, err := ctx.State.Require(spec.Secret)
	if err != nil {
		return provisioning.Outputs{}, err
	}
	db, err := ctx.State.Require(spec.Database)
	if err != nil {
		return provisioning.Outputs{}, err
	}

	creds, err := ctx.Cloud.GetCredentials(ctx, secret.ID)
	if err != nil {
		return provisioning.Outputs{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds.Host == db.Endpoint && creds.Port == db.Port && creds.DBName == spec.DatabaseName {
		return provisioning.Outputs{ID: secret.ID, ARN: secret.ARN}, nil
	}

	creds.Host = db.Endpoint
	creds.Port = db.Port
	creds.DBName = spec.DatabaseName
	arn, err := ctx.Cloud.PutCredentials(ctx, secret.ID, creds)
	if err != nil {
		return provisioning.Outputs{}, fmt.Errorf("failed to store connection details: %w", err)
	}
	return provisioning.Outputs{ID: secret.ID, ARN: arn}, nil
}
