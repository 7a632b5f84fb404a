package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// EnsureLogGroup ensures the log group exists with the given retention and
// returns its ARN.
func (c *RealClient) EnsureLogGroup(ctx context.Context, name string, retentionDays int, tags map[string]string) (string, error) {
	_, err := c.logs.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
		Tags:         tags,
	})
	if err != nil && !IsAlreadyExists(err) {
		return "", fmt.Errorf("failed to create log group %s: %w", name, err)
	}

	// #nosec G115
	if _, err := c.logs.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(name),
		RetentionInDays: aws.Int32(int32(retentionDays)),
	}); err != nil {
		return "", fmt.Errorf("failed to set retention of log group %s: %w", name, err)
	}

	out, err := c.logs.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe log group %s: %w", name, err)
	}
	for _, group := range out.LogGroups {
		if aws.ToString(group.LogGroupName) == name {
			return aws.ToString(group.Arn), nil
		}
	}
	return "", fmt.Errorf("log group %s not found after creation", name)
}

// DeleteLogGroup deletes the log group and its streams.
func (c *RealClient) DeleteLogGroup(ctx context.Context, name string) error {
	_, err := c.logs.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{LogGroupName: aws.String(name)})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete log group %s: %w", name, err)
	}
	return nil
}
