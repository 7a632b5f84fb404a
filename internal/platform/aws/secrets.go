package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Credentials is the JSON document stored in the database secret. Host,
// Port and DBName are added once the database instance exists; the backend
// receives the whole document as DATABASE_URL.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Engine   string `json:"engine,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	DBName   string `json:"dbname,omitempty"`
}

// RDS rejects these characters in master passwords.
const excludedPasswordCharacters = `/@"' \`

// EnsureSecret creates the credentials secret with a generated password.
// A secret scheduled for deletion is restored instead of recreated.
func (c *RealClient) EnsureSecret(ctx context.Context, opts SecretOpts) (string, error) {
	desc, err := c.secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{SecretId: aws.String(opts.Name)})
	switch {
	case err == nil:
		if desc.DeletedDate != nil {
			if _, err := c.secrets.RestoreSecret(ctx, &secretsmanager.RestoreSecretInput{SecretId: desc.ARN}); err != nil {
				return "", fmt.Errorf("failed to restore secret %s: %w", opts.Name, err)
			}
		}
		return aws.ToString(desc.ARN), nil
	case !IsNotFound(err):
		return "", fmt.Errorf("failed to describe secret %s: %w", opts.Name, err)
	}

	password, err := c.generatePassword(ctx, opts.PasswordLength)
	if err != nil {
		return "", err
	}
	value, err := json.Marshal(&Credentials{Username: opts.Username, Password: password, Engine: opts.Engine})
	if err != nil {
		return "", err
	}

	out, err := c.secrets.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(opts.Name),
		Description:  aws.String(opts.Description),
		SecretString: aws.String(string(value)),
		Tags:         secretTags(opts.Tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create secret %s: %w", opts.Name, err)
	}
	return aws.ToString(out.ARN), nil
}

func (c *RealClient) generatePassword(ctx context.Context, length int) (string, error) {
	out, err := c.secrets.GetRandomPassword(ctx, &secretsmanager.GetRandomPasswordInput{
		PasswordLength:          aws.Int64(int64(length)),
		ExcludeCharacters:       aws.String(excludedPasswordCharacters),
		RequireEachIncludedType: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return aws.ToString(out.RandomPassword), nil
}

// GetCredentials reads and decodes the current secret value.
func (c *RealClient) GetCredentials(ctx context.Context, name string) (*Credentials, error) {
	out, err := c.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &creds); err != nil {
		return nil, fmt.Errorf("secret %s is not valid JSON: %w", name, err)
	}
	return &creds, nil
}

// PutCredentials stores creds as the new current version of the secret.
func (c *RealClient) PutCredentials(ctx context.Context, name string, creds *Credentials) (string, error) {
	value, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	out, err := c.secrets.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(string(value)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to update secret %s: %w", name, err)
	}
	return aws.ToString(out.ARN), nil
}

// DeleteSecret deletes the secret immediately, without a recovery window,
// so that the same name can be reused by the next apply.
func (c *RealClient) DeleteSecret(ctx context.Context, name string) error {
	_, err := c.secrets.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete secret %s: %w", name, err)
	}
	return nil
}
