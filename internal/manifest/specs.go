package manifest

// VPCSpec is the virtual network of the stack.
type VPCSpec struct {
	CIDR string `json:"cidr"`
}

func (VPCSpec) Refs() []string { return nil }

// InternetGatewaySpec is attached to VPC.
type InternetGatewaySpec struct {
	VPC string `json:"vpc"`
}

func (s InternetGatewaySpec) Refs() []string { return []string{s.VPC} }

// SubnetSpec places one subnet in one availability zone.
type SubnetSpec struct {
	VPC              string `json:"vpc"`
	CIDR             string `json:"cidr"`
	AvailabilityZone string `json:"availabilityZone"`

	// SubnetTier is public, app or db.
	SubnetTier string `json:"subnetTier"`

	// Public subnets assign public IPs on launch.
	Public bool `json:"public"`
}

func (s SubnetSpec) Refs() []string { return []string{s.VPC} }

// ElasticIPSpec allocates the public address of the NAT gateway.
type ElasticIPSpec struct{}

func (ElasticIPSpec) Refs() []string { return nil }

// NATGatewaySpec is the egress path of the private subnets.
type NATGatewaySpec struct {
	Subnet          string `json:"subnet"`
	ElasticIP       string `json:"elasticIP"`
	InternetGateway string `json:"internetGateway"`
}

func (s NATGatewaySpec) Refs() []string {
	return []string{s.Subnet, s.ElasticIP, s.InternetGateway}
}

// RouteTableSpec routes 0.0.0.0/0 through either an internet gateway or a
// NAT gateway and is associated with Subnets.
type RouteTableSpec struct {
	VPC             string   `json:"vpc"`
	Subnets         []string `json:"subnets"`
	InternetGateway string   `json:"internetGateway,omitempty"`
	NATGateway      string   `json:"natGateway,omitempty"`
}

func (s RouteTableSpec) Refs() []string {
	refs := append([]string{s.VPC, s.InternetGateway, s.NATGateway}, s.Subnets...)
	return refs
}

// IngressRule allows TCP traffic on Port from either a CIDR block or the
// members of another security group.
type IngressRule struct {
	Port        int    `json:"port"`
	CIDR        string `json:"cidr,omitempty"`
	SourceGroup string `json:"sourceGroup,omitempty"`
	Description string `json:"description,omitempty"`
}

// SecurityGroupSpec is a stateful firewall. Egress is left at the AWS
// default (all traffic).
type SecurityGroupSpec struct {
	VPC         string        `json:"vpc"`
	Description string        `json:"description"`
	Ingress     []IngressRule `json:"ingress,omitempty"`
}

func (s SecurityGroupSpec) Refs() []string {
	refs := []string{s.VPC}
	for _, r := range s.Ingress {
		refs = append(refs, r.SourceGroup)
	}
	return refs
}

// SecretSpec holds the database master credentials. The password is
// generated by Secrets Manager and never leaves AWS except through the
// task's secret injection.
type SecretSpec struct {
	Description    string `json:"description"`
	Username       string `json:"username"`
	Engine         string `json:"engine"`
	PasswordLength int    `json:"passwordLength"`
}

func (SecretSpec) Refs() []string { return nil }

// DBSubnetGroupSpec spans the database subnets.
type DBSubnetGroupSpec struct {
	Description string   `json:"description"`
	Subnets     []string `json:"subnets"`
}

func (s DBSubnetGroupSpec) Refs() []string { return s.Subnets }

// DBInstanceSpec is the PostgreSQL instance. It is never publicly
// accessible and reads its master password from Secret.
type DBInstanceSpec struct {
	Engine              string   `json:"engine"`
	EngineVersion       string   `json:"engineVersion"`
	InstanceClass       string   `json:"instanceClass"`
	AllocatedStorage    int      `json:"allocatedStorage"`
	DatabaseName        string   `json:"databaseName"`
	Port                int      `json:"port"`
	MultiAZ             bool     `json:"multiAZ"`
	BackupRetentionDays int      `json:"backupRetentionDays"`
	SubnetGroup         string   `json:"subnetGroup"`
	SecurityGroups      []string `json:"securityGroups"`
	Secret              string   `json:"secret"`
}

func (s DBInstanceSpec) Refs() []string {
	return append([]string{s.SubnetGroup, s.Secret}, s.SecurityGroups...)
}

// ConnectionSecretSpec completes Secret with the host, port and database
// name of Database once the instance exists, so that the secret JSON is
// everything the backend needs to connect.
type ConnectionSecretSpec struct {
	Secret       string `json:"secret"`
	Database     string `json:"database"`
	DatabaseName string `json:"databaseName"`
}

func (s ConnectionSecretSpec) Refs() []string { return []string{s.Secret, s.Database} }

// LogGroupSpec receives a service's container output.
type LogGroupSpec struct {
	RetentionDays int `json:"retentionDays"`
}

func (LogGroupSpec) Refs() []string { return nil }

// ExecutionRoleSpec is assumed by ECS to pull images, write logs and
// resolve the task's secrets.
type ExecutionRoleSpec struct {
	Secrets []string `json:"secrets"`
}

func (s ExecutionRoleSpec) Refs() []string { return s.Secrets }

// ClusterSpec is the ECS cluster both services run in.
type ClusterSpec struct {
	ContainerInsights bool `json:"containerInsights"`
}

func (ClusterSpec) Refs() []string { return nil }

// LoadBalancerSpec is an application load balancer.
type LoadBalancerSpec struct {
	Internal       bool     `json:"internal"`
	Subnets        []string `json:"subnets"`
	SecurityGroups []string `json:"securityGroups"`
}

func (s LoadBalancerSpec) Refs() []string {
	return append(append([]string{}, s.Subnets...), s.SecurityGroups...)
}

// TargetGroupSpec registers Fargate tasks by IP.
type TargetGroupSpec struct {
	VPC        string `json:"vpc"`
	Port       int    `json:"port"`
	HealthPath string `json:"healthPath"`
}

func (s TargetGroupSpec) Refs() []string { return []string{s.VPC} }

// ListenerSpec forwards HTTP on Port to TargetGroup.
type ListenerSpec struct {
	LoadBalancer string `json:"loadBalancer"`
	TargetGroup  string `json:"targetGroup"`
	Port         int    `json:"port"`
}

func (s ListenerSpec) Refs() []string { return []string{s.LoadBalancer, s.TargetGroup} }

// SecretEnv injects a secret's value as environment variable Name.
type SecretEnv struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// EndpointEnv sets environment variable Name to http://<DNS name> of a
// load balancer.
type EndpointEnv struct {
	Name         string `json:"name"`
	LoadBalancer string `json:"loadBalancer"`
}

// TaskDefinitionSpec describes the single container of a service.
type TaskDefinitionSpec struct {
	ContainerName string            `json:"containerName"`
	Image         string            `json:"image"`
	CPU           int               `json:"cpu"`
	Memory        int               `json:"memory"`
	Port          int               `json:"port"`
	HealthPath    string            `json:"healthPath"`
	ExecutionRole string            `json:"executionRole"`
	LogGroup      string            `json:"logGroup"`
	Environment   map[string]string `json:"environment,omitempty"`
	Secrets       []SecretEnv       `json:"secrets,omitempty"`
	Endpoints     []EndpointEnv     `json:"endpoints,omitempty"`
}

func (s TaskDefinitionSpec) Refs() []string {
	refs := []string{s.ExecutionRole, s.LogGroup}
	for _, sec := range s.Secrets {
		refs = append(refs, sec.Secret)
	}
	for _, ep := range s.Endpoints {
		refs = append(refs, ep.LoadBalancer)
	}
	return refs
}

// ServiceSpec runs TaskDefinition on Fargate behind TargetGroup. Listener
// is referenced because ECS rejects target groups that no load balancer
// forwards to yet.
type ServiceSpec struct {
	Cluster        string   `json:"cluster"`
	TaskDefinition string   `json:"taskDefinition"`
	TargetGroup    string   `json:"targetGroup"`
	Listener       string   `json:"listener"`
	Subnets        []string `json:"subnets"`
	SecurityGroups []string `json:"securityGroups"`
	DesiredCount   int      `json:"desiredCount"`
	ContainerName  string   `json:"containerName"`
	ContainerPort  int      `json:"containerPort"`
}

func (s ServiceSpec) Refs() []string {
	refs := []string{s.Cluster, s.TaskDefinition, s.TargetGroup, s.Listener}
	refs = append(refs, s.Subnets...)
	return append(refs, s.SecurityGroups...)
}

// AutoscalingSpec keeps a service's average CPU at CPUTarget percent.
type AutoscalingSpec struct {
	Cluster     string  `json:"cluster"`
	Service     string  `json:"service"`
	MinCapacity int     `json:"minCapacity"`
	MaxCapacity int     `json:"maxCapacity"`
	CPUTarget   float64 `json:"cpuTarget"`
}

func (s AutoscalingSpec) Refs() []string { return []string{s.Cluster, s.Service} }
