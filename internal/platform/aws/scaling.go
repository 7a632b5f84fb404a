package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	aatypes "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
)

const (
	scaleInCooldown  = 300
	scaleOutCooldown = 60
)

// ScalingResourceID returns the Application Auto Scaling resource ID of an
// ECS service.
func ScalingResourceID(cluster, service string) string {
	return "service/" + cluster + "/" + service
}

// EnsureScaling registers the service as a scalable target and puts a
// target tracking policy on its average CPU. Both calls update in place.
func (c *RealClient) EnsureScaling(ctx context.Context, opts ScalingOpts) (string, error) {
	resourceID := aws.String(ScalingResourceID(opts.Cluster, opts.Service))

	// #nosec G115
	if _, err := c.scaling.RegisterScalableTarget(ctx, &applicationautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  aatypes.ServiceNamespaceEcs,
		ResourceId:        resourceID,
		ScalableDimension: aatypes.ScalableDimensionECSServiceDesiredCount,
		MinCapacity:       aws.Int32(int32(opts.MinCapacity)),
		MaxCapacity:       aws.Int32(int32(opts.MaxCapacity)),
	}); err != nil {
		return "", fmt.Errorf("failed to register scalable target %s: %w", aws.ToString(resourceID), err)
	}

	out, err := c.scaling.PutScalingPolicy(ctx, &applicationautoscaling.PutScalingPolicyInput{
		PolicyName:        aws.String(opts.PolicyName),
		ServiceNamespace:  aatypes.ServiceNamespaceEcs,
		ResourceId:        resourceID,
		ScalableDimension: aatypes.ScalableDimensionECSServiceDesiredCount,
		PolicyType:        aatypes.PolicyTypeTargetTrackingScaling,
		TargetTrackingScalingPolicyConfiguration: &aatypes.TargetTrackingScalingPolicyConfiguration{
			TargetValue: aws.Float64(opts.CPUTarget),
			PredefinedMetricSpecification: &aatypes.PredefinedMetricSpecification{
				PredefinedMetricType: aatypes.MetricTypeECSServiceAverageCPUUtilization,
			},
			ScaleInCooldown:  aws.Int32(scaleInCooldown),
			ScaleOutCooldown: aws.Int32(scaleOutCooldown),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to put scaling policy %s: %w", opts.PolicyName, err)
	}
	return aws.ToString(out.PolicyARN), nil
}

// DeleteScaling removes the policy and deregisters the scalable target.
func (c *RealClient) DeleteScaling(ctx context.Context, cluster, service, policyName string) error {
	resourceID := aws.String(ScalingResourceID(cluster, service))

	if _, err := c.scaling.DeleteScalingPolicy(ctx, &applicationautoscaling.DeleteScalingPolicyInput{
		PolicyName:        aws.String(policyName),
		ServiceNamespace:  aatypes.ServiceNamespaceEcs,
		ResourceId:        resourceID,
		ScalableDimension: aatypes.ScalableDimensionECSServiceDesiredCount,
	}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete scaling policy %s: %w", policyName, err)
	}

	if _, err := c.scaling.DeregisterScalableTarget(ctx, &applicationautoscaling.DeregisterScalableTargetInput{
		ServiceNamespace:  aatypes.ServiceNamespaceEcs,
		ResourceId:        resourceID,
		ScalableDimension: aatypes.ScalableDimensionECSServiceDesiredCount,
	}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to deregister scalable target %s: %w", aws.ToString(resourceID), err)
	}
	return nil
}
