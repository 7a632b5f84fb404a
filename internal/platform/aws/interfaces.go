package aws

import "context"

// SubnetOpts describes a subnet to ensure.
type SubnetOpts struct {
	Name             string
	VPCID            string
	CIDR             string
	AvailabilityZone string
	Public           bool
	Tags             map[string]string
}

// Address is an allocated Elastic IP.
type Address struct {
	AllocationID string
	PublicIP     string
}

// RouteTableOpts describes a route table with a single default route.
// Exactly one of GatewayID and NATGatewayID is set.
type RouteTableOpts struct {
	Name         string
	VPCID        string
	SubnetIDs    []string
	GatewayID    string
	NATGatewayID string
	Tags         map[string]string
}

// NetworkManager manages the VPC and its routing.
type NetworkManager interface {
	EnsureVPC(ctx context.Context, name, cidr string, tags map[string]string) (string, error)
	EnsureInternetGateway(ctx context.Context, name, vpcID string, tags map[string]string) (string, error)
	EnsureSubnet(ctx context.Context, opts SubnetOpts) (string, error)
	EnsureElasticIP(ctx context.Context, name string, tags map[string]string) (*Address, error)
	// EnsureNATGateway waits until the gateway is available.
	EnsureNATGateway(ctx context.Context, name, subnetID, allocationID string, tags map[string]string) (string, error)
	EnsureRouteTable(ctx context.Context, opts RouteTableOpts) (string, error)

	DeleteVPC(ctx context.Context, name string) error
	DeleteInternetGateway(ctx context.Context, name string) error
	DeleteSubnet(ctx context.Context, name string) error
	ReleaseElasticIP(ctx context.Context, name string) error
	// DeleteNATGateway waits until the gateway is deleted so that its
	// address and subnet can be released.
	DeleteNATGateway(ctx context.Context, name string) error
	DeleteRouteTable(ctx context.Context, name string) error
}

// IngressPermission allows TCP on Port from a CIDR or a security group.
type IngressPermission struct {
	Port          int
	CIDR          string
	SourceGroupID string
	Description   string
}

// SecurityGroupManager manages security groups and their ingress rules.
type SecurityGroupManager interface {
	EnsureSecurityGroup(ctx context.Context, name, vpcID, description string, tags map[string]string) (string, error)
	// AuthorizeIngress adds rules to a group. Rules that already exist are
	// not an error.
	AuthorizeIngress(ctx context.Context, groupID string, rules []IngressPermission) error
	DeleteSecurityGroup(ctx context.Context, name string) error
}

// SecretOpts describes the database credentials secret.
type SecretOpts struct {
	Name           string
	Description    string
	Username       string
	Engine         string
	PasswordLength int
	Tags           map[string]string
}

// SecretManager manages the database credentials secret.
type SecretManager interface {
	// EnsureSecret creates the secret with a generated password when it
	// does not exist and returns its ARN. An existing secret keeps its
	// password.
	EnsureSecret(ctx context.Context, opts SecretOpts) (string, error)
	GetCredentials(ctx context.Context, name string) (*Credentials, error)
	// PutCredentials stores a new version of the secret and returns its ARN.
	PutCredentials(ctx context.Context, name string, creds *Credentials) (string, error)
	DeleteSecret(ctx context.Context, name string) error
}

// DBInstanceOpts describes the PostgreSQL instance.
type DBInstanceOpts struct {
	Identifier          string
	Engine              string
	EngineVersion       string
	InstanceClass       string
	AllocatedStorage    int
	DatabaseName        string
	Username            string
	Password            string
	Port                int
	MultiAZ             bool
	BackupRetentionDays int
	SubnetGroupName     string
	SecurityGroupIDs    []string
	Tags                map[string]string
}

// DBInstance is an available database instance.
type DBInstance struct {
	ARN     string
	Address string
	Port    int
}

// DatabaseManager manages RDS subnet groups and instances.
type DatabaseManager interface {
	EnsureDBSubnetGroup(ctx context.Context, name, description string, subnetIDs []string, tags map[string]string) (string, error)
	// EnsureDBInstance waits until the instance is available.
	EnsureDBInstance(ctx context.Context, opts DBInstanceOpts) (*DBInstance, error)
	DeleteDBSubnetGroup(ctx context.Context, name string) error
	// DeleteDBInstance skips the final snapshot and waits for the deletion.
	DeleteDBInstance(ctx context.Context, identifier string) error
}

// IdentityManager manages the ECS task execution role.
type IdentityManager interface {
	// EnsureExecutionRole returns the role ARN. The role may read secretARNs.
	EnsureExecutionRole(ctx context.Context, name string, secretARNs []string, tags map[string]string) (string, error)
	DeleteRole(ctx context.Context, name string) error
}

// LogManager manages CloudWatch log groups.
type LogManager interface {
	EnsureLogGroup(ctx context.Context, name string, retentionDays int, tags map[string]string) (string, error)
	DeleteLogGroup(ctx context.Context, name string) error
}

// LoadBalancerOpts describes an application load balancer.
type LoadBalancerOpts struct {
	Name             string
	Internal         bool
	SubnetIDs        []string
	SecurityGroupIDs []string
	Tags             map[string]string
}

// LoadBalancer is an active application load balancer.
type LoadBalancer struct {
	ARN     string
	DNSName string
}

// TargetGroupOpts describes an IP target group.
type TargetGroupOpts struct {
	Name       string
	VPCID      string
	Port       int
	HealthPath string
	Tags       map[string]string
}

// LoadBalancerManager manages load balancers, target groups and listeners.
type LoadBalancerManager interface {
	// EnsureLoadBalancer waits until the load balancer is active.
	EnsureLoadBalancer(ctx context.Context, opts LoadBalancerOpts) (*LoadBalancer, error)
	EnsureTargetGroup(ctx context.Context, opts TargetGroupOpts) (string, error)
	// EnsureListener forwards HTTP on port to the target group, repointing
	// an existing listener on that port when needed.
	EnsureListener(ctx context.Context, loadBalancerARN, targetGroupARN string, port int, tags map[string]string) (string, error)
	DeleteLoadBalancer(ctx context.Context, name string) error
	DeleteTargetGroup(ctx context.Context, name string) error
	DeleteListener(ctx context.Context, loadBalancerName string, port int) error
}

// TaskDefinitionOpts describes a single-container Fargate task.
type TaskDefinitionOpts struct {
	Family           string
	ContainerName    string
	Image            string
	CPU              int
	Memory           int
	Port             int
	ExecutionRoleARN string
	LogGroup         string
	Environment      map[string]string
	// Secrets maps environment variable names to secret ARNs.
	Secrets map[string]string
	Tags    map[string]string
}

// ServiceOpts describes a Fargate service behind a target group.
type ServiceOpts struct {
	Name              string
	Cluster           string
	TaskDefinitionARN string
	DesiredCount      int
	SubnetIDs         []string
	SecurityGroupIDs  []string
	TargetGroupARN    string
	ContainerName     string
	ContainerPort     int
	Tags              map[string]string
}

// ContainerManager manages the ECS cluster, task definitions and services.
type ContainerManager interface {
	EnsureCluster(ctx context.Context, name string, containerInsights bool, tags map[string]string) (string, error)
	// RegisterTaskDefinition registers a new revision only when opts differ
	// from the latest active revision of the family.
	RegisterTaskDefinition(ctx context.Context, opts TaskDefinitionOpts) (string, error)
	// EnsureService creates the service or rolls it to a new task
	// definition, then waits for it to become stable.
	EnsureService(ctx context.Context, opts ServiceOpts) (string, error)
	DeleteCluster(ctx context.Context, name string) error
	DeregisterTaskDefinitions(ctx context.Context, family string) error
	DeleteService(ctx context.Context, cluster, name string) error
}

// ScalingOpts describes target tracking on a service's average CPU.
type ScalingOpts struct {
	PolicyName  string
	Cluster     string
	Service     string
	MinCapacity int
	MaxCapacity int
	CPUTarget   float64
}

// ScalingManager manages service autoscaling.
type ScalingManager interface {
	EnsureScaling(ctx context.Context, opts ScalingOpts) (string, error)
	DeleteScaling(ctx context.Context, cluster, service, policyName string) error
}

// InfrastructureManager combines all manager interfaces.
type InfrastructureManager interface {
	NetworkManager
	SecurityGroupManager
	SecretManager
	DatabaseManager
	IdentityManager
	LogManager
	LoadBalancerManager
	ContainerManager
	ScalingManager
}
