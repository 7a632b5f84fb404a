package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
)

const (
	executionRolePolicyARN = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"
	secretsPolicyName      = "read-database-secret"
	ecsTasksPrincipal      = "ecs-tasks.amazonaws.com"
)

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal,omitempty"`
	Action    []string          `json:"Action"`
	Resource  []string          `json:"Resource,omitempty"`
}

// assumeRolePolicy lets ECS tasks assume the role.
func assumeRolePolicy() (string, error) {
	return marshalPolicy(policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]string{"Service": ecsTasksPrincipal},
			Action:    []string{"sts:AssumeRole"},
		}},
	})
}

// readSecretsPolicy allows reading exactly the given secrets.
func readSecretsPolicy(secretARNs []string) (string, error) {
	return marshalPolicy(policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:   "Allow",
			Action:   []string{"secretsmanager:GetSecretValue"},
			Resource: secretARNs,
		}},
	})
}

func marshalPolicy(doc policyDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return string(data), nil
}

// EnsureExecutionRole ensures the ECS task execution role exists with the
// managed execution policy and an inline policy for the secrets. Both
// policies are (re)applied on every call, which is idempotent.
func (c *RealClient) EnsureExecutionRole(ctx context.Context, name string, secretARNs []string, tags map[string]string) (string, error) {
	var arn string
	got, err := c.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	switch {
	case err == nil:
		arn = aws.ToString(got.Role.Arn)
	case IsNotFound(err):
		trust, err := assumeRolePolicy()
		if err != nil {
			return "", err
		}
		out, err := c.iam.CreateRole(ctx, &iam.CreateRoleInput{
			RoleName:                 aws.String(name),
			AssumeRolePolicyDocument: aws.String(trust),
			Description:              aws.String("ECS task execution role"),
			Tags:                     iamTags(tags),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create role %s: %w", name, err)
		}
		arn = aws.ToString(out.Role.Arn)
	default:
		return "", fmt.Errorf("failed to get role %s: %w", name, err)
	}

	if _, err := c.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(name),
		PolicyArn: aws.String(executionRolePolicyARN),
	}); err != nil {
		return "", fmt.Errorf("failed to attach execution policy to %s: %w", name, err)
	}

	if len(secretARNs) > 0 {
		doc, err := readSecretsPolicy(secretARNs)
		if err != nil {
			return "", err
		}
		if _, err := c.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
			RoleName:       aws.String(name),
			PolicyName:     aws.String(secretsPolicyName),
			PolicyDocument: aws.String(doc),
		}); err != nil {
			return "", fmt.Errorf("failed to put secrets policy on %s: %w", name, err)
		}
	}
	return arn, nil
}

// DeleteRole detaches managed policies, deletes inline policies and then
// the role itself.
func (c *RealClient) DeleteRole(ctx context.Context, name string) error {
	attached, err := c.iam.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{RoleName: aws.String(name)})
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to list policies of role %s: %w", name, err)
	}
	for _, p := range attached.AttachedPolicies {
		if _, err := c.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(name),
			PolicyArn: p.PolicyArn,
		}); err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to detach %s from role %s: %w", aws.ToString(p.PolicyArn), name, err)
		}
	}

	inline, err := c.iam.ListRolePolicies(ctx, &iam.ListRolePoliciesInput{RoleName: aws.String(name)})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to list inline policies of role %s: %w", name, err)
	}
	if inline != nil {
		for _, policy := range inline.PolicyNames {
			if _, err := c.iam.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
				RoleName:   aws.String(name),
				PolicyName: aws.String(policy),
			}); err != nil && !IsNotFound(err) {
				return fmt.Errorf("failed to delete policy %s of role %s: %w", policy, name, err)
			}
		}
	}

	return c.deleteWithRetry(ctx, "role", name, func(ctx context.Context) error {
		_, err := c.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(name)})
		return err
	})
}
