package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/tierstack/tierstack/internal/config"
)

// RealClient implements InfrastructureManager using the AWS APIs.
type RealClient struct {
	ec2      *ec2.Client
	elb      *elb.Client
	ecs      *ecs.Client
	rds      *rds.Client
	secrets  *secretsmanager.Client
	iam      *iam.Client
	logs     *cloudwatchlogs.Client
	scaling  *applicationautoscaling.Client
	region   string
	timeouts *config.Timeouts
}

var _ InfrastructureManager = (*RealClient)(nil)

// AuthOpts selects the AWS region and credentials for LoadConfig. Empty fields fall back to the
// default AWS credential chain (environment, shared config, instance role).
type AuthOpts struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// LoadConfig resolves the AWS configuration for opts.
func LoadConfig(ctx context.Context, opts AuthOpts) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// NewRealClient creates a RealClient for every service from one AWS config.
func NewRealClient(cfg aws.Config, opts ...ClientOption) *RealClient {
	c := &RealClient{
		ec2:      ec2.NewFromConfig(cfg),
		elb:      elb.NewFromConfig(cfg),
		ecs:      ecs.NewFromConfig(cfg),
		rds:      rds.NewFromConfig(cfg),
		secrets:  secretsmanager.NewFromConfig(cfg),
		iam:      iam.NewFromConfig(cfg),
		logs:     cloudwatchlogs.NewFromConfig(cfg),
		scaling:  applicationautoscaling.NewFromConfig(cfg),
		region:   cfg.Region,
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Region returns the region the client operates in.
func (c *RealClient) Region() string {
	return c.region
}
