package aws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/tierstack/tierstack/internal/util/tags"
)

const (
	statusActive   = "ACTIVE"
	statusDraining = "DRAINING"

	// fingerprintTag marks a task definition revision with a hash of the
	// options it was registered from.
	fingerprintTag = "tierstack:fingerprint"

	healthCheckGracePeriod = 60
)

// EnsureCluster ensures an active ECS cluster exists and returns its ARN.
func (c *RealClient) EnsureCluster(ctx context.Context, name string, containerInsights bool, tags map[string]string) (string, error) {
	out, err := c.ecs.DescribeClusters(ctx, &ecs.DescribeClustersInput{Clusters: []string{name}})
	if err != nil {
		return "", fmt.Errorf("failed to describe cluster %s: %w", name, err)
	}
	for _, cl := range out.Clusters {
		if aws.ToString(cl.Status) == statusActive {
			return aws.ToString(cl.ClusterArn), nil
		}
	}

	insights := "disabled"
	if containerInsights {
		insights = "enabled"
	}
	created, err := c.ecs.CreateCluster(ctx, &ecs.CreateClusterInput{
		ClusterName: aws.String(name),
		Settings: []ecstypes.ClusterSetting{{
			Name:  ecstypes.ClusterSettingNameContainerInsights,
			Value: aws.String(insights),
		}},
		Tags: ecsTags(tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create cluster %s: %w", name, err)
	}
	return aws.ToString(created.Cluster.ClusterArn), nil
}

// DeleteCluster deletes the cluster once its services are gone.
func (c *RealClient) DeleteCluster(ctx context.Context, name string) error {
	return c.deleteWithRetry(ctx, "cluster", name, func(ctx context.Context) error {
		_, err := c.ecs.DeleteCluster(ctx, &ecs.DeleteClusterInput{Cluster: aws.String(name)})
		return err
	})
}

// Fingerprint hashes the parts of opts that end up in the task definition.
func Fingerprint(opts TaskDefinitionOpts) string {
	relevant := opts
	relevant.Tags = nil
	// encoding/json sorts map keys, so the hash is stable.
	data, _ := json.Marshal(relevant)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// RegisterTaskDefinition registers a Fargate task definition revision unless
// the latest active revision was registered from identical options.
func (c *RealClient) RegisterTaskDefinition(ctx context.Context, opts TaskDefinitionOpts) (string, error) {
	fingerprint := Fingerprint(opts)

	latest, err := c.ecs.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
		TaskDefinition: aws.String(opts.Family),
		Include:        []ecstypes.TaskDefinitionField{ecstypes.TaskDefinitionFieldTags},
	})
	switch {
	case err == nil:
		for _, tag := range latest.Tags {
			if aws.ToString(tag.Key) == fingerprintTag && aws.ToString(tag.Value) == fingerprint &&
				latest.TaskDefinition.Status == ecstypes.TaskDefinitionStatusActive {
				return aws.ToString(latest.TaskDefinition.TaskDefinitionArn), nil
			}
		}
	case !isClientException(err) && !IsNotFound(err):
		return "", fmt.Errorf("failed to describe task definition %s: %w", opts.Family, err)
	}

	labels := make(map[string]string, len(opts.Tags)+1)
	for k, v := range opts.Tags {
		labels[k] = v
	}
	labels[fingerprintTag] = fingerprint

	var out *ecs.RegisterTaskDefinitionOutput
	err = c.createWithRetry(ctx, func() error {
		var err error
		out, err = c.ecs.RegisterTaskDefinition(ctx, taskDefinitionInput(opts, c.region, labels))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to register task definition %s: %w", opts.Family, err)
	}
	return aws.ToString(out.TaskDefinition.TaskDefinitionArn), nil
}

// isClientException matches the error ECS returns for an unknown family.
func isClientException(err error) bool {
	return hasCode(err, "ClientException")
}

func taskDefinitionInput(opts TaskDefinitionOpts, region string, labels map[string]string) *ecs.RegisterTaskDefinitionInput {
	env := make([]ecstypes.KeyValuePair, 0, len(opts.Environment))
	for _, k := range tags.Keys(opts.Environment) {
		env = append(env, ecstypes.KeyValuePair{Name: aws.String(k), Value: aws.String(opts.Environment[k])})
	}
	secrets := make([]ecstypes.Secret, 0, len(opts.Secrets))
	for _, k := range tags.Keys(opts.Secrets) {
		secrets = append(secrets, ecstypes.Secret{Name: aws.String(k), ValueFrom: aws.String(opts.Secrets[k])})
	}

	// #nosec G115
	return &ecs.RegisterTaskDefinitionInput{
		Family:                  aws.String(opts.Family),
		RequiresCompatibilities: []ecstypes.Compatibility{ecstypes.CompatibilityFargate},
		NetworkMode:             ecstypes.NetworkModeAwsvpc,
		Cpu:                     aws.String(strconv.Itoa(opts.CPU)),
		Memory:                  aws.String(strconv.Itoa(opts.Memory)),
		ExecutionRoleArn:        aws.String(opts.ExecutionRoleARN),
		ContainerDefinitions: []ecstypes.ContainerDefinition{{
			Name:      aws.String(opts.ContainerName),
			Image:     aws.String(opts.Image),
			Essential: aws.Bool(true),
			PortMappings: []ecstypes.PortMapping{{
				ContainerPort: aws.Int32(int32(opts.Port)),
				Protocol:      ecstypes.TransportProtocolTcp,
			}},
			Environment: env,
			Secrets:     secrets,
			LogConfiguration: &ecstypes.LogConfiguration{
				LogDriver: ecstypes.LogDriverAwslogs,
				Options: map[string]string{
					"awslogs-group":         opts.LogGroup,
					"awslogs-region":        region,
					"awslogs-stream-prefix": opts.ContainerName,
				},
			},
		}},
		Tags: ecsTags(labels),
	}
}

// DeregisterTaskDefinitions deregisters every active revision of family.
func (c *RealClient) DeregisterTaskDefinitions(ctx context.Context, family string) error {
	paginator := ecs.NewListTaskDefinitionsPaginator(c.ecs, &ecs.ListTaskDefinitionsInput{
		FamilyPrefix: aws.String(family),
		Status:       ecstypes.TaskDefinitionStatusActive,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list task definitions of %s: %w", family, err)
		}
		for _, arn := range page.TaskDefinitionArns {
			if _, err := c.ecs.DeregisterTaskDefinition(ctx, &ecs.DeregisterTaskDefinitionInput{
				TaskDefinition: aws.String(arn),
			}); err != nil && !IsNotFound(err) {
				return fmt.Errorf("failed to deregister %s: %w", arn, err)
			}
		}
	}
	return nil
}

// EnsureService creates the Fargate service or rolls it to the given task
// definition, then waits until it is stable. The desired count of an
// existing service is left to autoscaling.
func (c *RealClient) EnsureService(ctx context.Context, opts ServiceOpts) (string, error) {
	svc, err := c.findService(ctx, opts.Cluster, opts.Name)
	if err != nil {
		return "", err
	}

	var arn string
	switch {
	case svc != nil && aws.ToString(svc.Status) == statusActive:
		arn = aws.ToString(svc.ServiceArn)
		if aws.ToString(svc.TaskDefinition) != opts.TaskDefinitionARN {
			if _, err := c.ecs.UpdateService(ctx, &ecs.UpdateServiceInput{
				Cluster:        aws.String(opts.Cluster),
				Service:        aws.String(opts.Name),
				TaskDefinition: aws.String(opts.TaskDefinitionARN),
			}); err != nil {
				return "", fmt.Errorf("failed to update service %s: %w", opts.Name, err)
			}
		}
	case svc != nil && aws.ToString(svc.Status) == statusDraining:
		return "", fmt.Errorf("service %s is draining, retry once it is inactive", opts.Name)
	default:
		var out *ecs.CreateServiceOutput
		err := c.createWithRetry(ctx, func() error {
			var err error
			out, err = c.ecs.CreateService(ctx, serviceInput(opts))
			return err
		})
		if err != nil {
			return "", fmt.Errorf("failed to create service %s: %w", opts.Name, err)
		}
		arn = aws.ToString(out.Service.ServiceArn)
	}

	waiter := ecs.NewServicesStableWaiter(c.ecs)
	if err := waiter.Wait(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(opts.Cluster),
		Services: []string{opts.Name},
	}, c.timeouts.ServiceStable); err != nil {
		return "", fmt.Errorf("failed to wait for service %s to become stable: %w", opts.Name, err)
	}
	return arn, nil
}

func serviceInput(opts ServiceOpts) *ecs.CreateServiceInput {
	// #nosec G115
	return &ecs.CreateServiceInput{
		Cluster:        aws.String(opts.Cluster),
		ServiceName:    aws.String(opts.Name),
		TaskDefinition: aws.String(opts.TaskDefinitionARN),
		DesiredCount:   aws.Int32(int32(opts.DesiredCount)),
		LaunchType:     ecstypes.LaunchTypeFargate,
		NetworkConfiguration: &ecstypes.NetworkConfiguration{
			AwsvpcConfiguration: &ecstypes.AwsVpcConfiguration{
				Subnets:        opts.SubnetIDs,
				SecurityGroups: opts.SecurityGroupIDs,
				AssignPublicIp: ecstypes.AssignPublicIpDisabled,
			},
		},
		LoadBalancers: []ecstypes.LoadBalancer{{
			TargetGroupArn: aws.String(opts.TargetGroupARN),
			ContainerName:  aws.String(opts.ContainerName),
			ContainerPort:  aws.Int32(int32(opts.ContainerPort)),
		}},
		HealthCheckGracePeriodSeconds: aws.Int32(healthCheckGracePeriod),
		PropagateTags:                 ecstypes.PropagateTagsService,
		Tags:                          ecsTags(opts.Tags),
	}
}

func (c *RealClient) findService(ctx context.Context, cluster, name string) (*ecstypes.Service, error) {
	out, err := c.ecs.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(cluster),
		Services: []string{name},
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe service %s: %w", name, err)
	}
	if len(out.Services) == 0 {
		return nil, nil
	}
	return &out.Services[0], nil
}

// DeleteService force-deletes the service, stopping its tasks, and waits
// until it is inactive.
func (c *RealClient) DeleteService(ctx context.Context, cluster, name string) error {
	svc, err := c.findService(ctx, cluster, name)
	if err != nil || svc == nil || aws.ToString(svc.Status) != statusActive {
		return err
	}
	if _, err := c.ecs.DeleteService(ctx, &ecs.DeleteServiceInput{
		Cluster: aws.String(cluster),
		Service: aws.String(name),
		Force:   aws.Bool(true),
	}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete service %s: %w", name, err)
	}

	waiter := ecs.NewServicesInactiveWaiter(c.ecs)
	if err := waiter.Wait(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(cluster),
		Services: []string{name},
	}, c.timeouts.Delete); err != nil {
		return fmt.Errorf("failed to wait for service %s to stop: %w", name, err)
	}
	return nil
}
