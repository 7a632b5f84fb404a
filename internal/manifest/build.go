package manifest

import (
	"fmt"
	"strconv"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/util/naming"
	"github.com/tierstack/tierstack/internal/util/tags"
)

// Well-known keys of the topology built by Build.
var (
	KeyVPC              = Key(KindVPC, "main")
	KeyInternetGateway  = Key(KindInternetGateway, "main")
	KeyElasticIP        = Key(KindElasticIP, "nat")
	KeyNATGateway       = Key(KindNATGateway, "main")
	KeyPublicRoutes     = Key(KindRouteTable, "public")
	KeyPrivateRoutes    = Key(KindRouteTable, "private")
	KeySecret           = Key(KindSecret, "database")
	KeyDBSubnetGroup    = Key(KindDBSubnetGroup, "main")
	KeyDBInstance       = Key(KindDBInstance, "main")
	KeyConnectionSecret = Key(KindConnectionSecret, "database")
	KeyExecutionRole    = Key(KindExecutionRole, "ecs")
	KeyCluster          = Key(KindCluster, "main")
	KeyPublicLB         = Key(KindLoadBalancer, "public")
	KeyInternalLB       = Key(KindLoadBalancer, "internal")
	KeyPublicListener   = Key(KindListener, "public")
	KeyInternalListener = Key(KindListener, "internal")
)

// Security group roles.
const (
	SGPublicALB   = "public-alb"
	SGFrontend    = config.RoleFrontend
	SGInternalALB = "internal-alb"
	SGBackend     = config.RoleBackend
	SGDatabase    = "database"
)

// Fixed values of the topology.
const (
	ListenerPort   = 80
	PostgresPort   = 5432
	PostgresEngine = "postgres"
	PasswordLength = 32
	BackendURLEnv  = "BACKEND_URL"
	DatabaseURLEnv = "DATABASE_URL"
	EnvironmentEnv = "ENVIRONMENT"
	PortEnv        = "PORT"

	TrustedProxiesEnv = "TRUSTED_PROXIES"
)

const allIPv4 = "0.0.0.0/0"

// SubnetKey returns the key of the index-th subnet of a subnet tier.
func SubnetKey(subnetTier string, index int) string {
	return Key(KindSubnet, fmt.Sprintf("%s-%d", subnetTier, index+1))
}

// SecurityGroupKey returns the key of a security group role.
func SecurityGroupKey(role string) string { return Key(KindSecurityGroup, role) }

// LogGroupKey returns the key of a service's log group.
func LogGroupKey(role string) string { return Key(KindLogGroup, role) }

// TargetGroupKey returns the key of a service's target group.
func TargetGroupKey(role string) string { return Key(KindTargetGroup, role) }

// TaskDefinitionKey returns the key of a service's task definition.
func TaskDefinitionKey(role string) string { return Key(KindTaskDefinition, role) }

// ServiceKey returns the key of an ECS service.
func ServiceKey(role string) string { return Key(KindService, role) }

// AutoscalingKey returns the key of a service's scaling policy.
func AutoscalingKey(role string) string { return Key(KindAutoscaling, role) }

type builder struct {
	cfg   *config.Config
	names naming.Namer
	graph *Graph
}

// Build produces the three-tier topology for cfg and validates it.
func Build(cfg *config.Config) (*Graph, error) {
	b := &builder{
		cfg:   cfg,
		names: naming.New(cfg.Project, cfg.Environment, cfg.Abbreviation),
		graph: NewGraph(),
	}

	if err := b.network(); err != nil {
		return nil, err
	}
	b.securityGroups()
	b.data()
	b.edge()
	b.compute()

	if err := b.graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource graph: %w", err)
	}
	return b.graph, nil
}

func (b *builder) add(key string, kind Kind, tier Tier, name string, spec Spec) {
	b.graph.Add(&Resource{
		Key:  key,
		Kind: kind,
		Tier: tier,
		Name: name,
		Spec: spec,
		Tags: tags.NewBuilder(b.cfg.Project, b.cfg.Environment).
			WithName(name).
			WithTier(string(tier)).
			Merge(b.cfg.Tags).
			Build(),
	})
}

func (b *builder) subnetKeys(subnetTier string) []string {
	keys := make([]string, len(b.cfg.Network.AvailabilityZones))
	for i := range keys {
		keys[i] = SubnetKey(subnetTier, i)
	}
	return keys
}

func (b *builder) network() error {
	b.add(KeyVPC, KindVPC, TierNetwork, b.names.VPC(), VPCSpec{CIDR: b.cfg.Network.VPCCIDR})
	b.add(KeyInternetGateway, KindInternetGateway, TierNetwork, b.names.InternetGateway(),
		InternetGatewaySpec{VPC: KeyVPC})

	for _, subnetTier := range config.SubnetTiers() {
		for i, az := range b.cfg.Network.AvailabilityZones {
			cidr, err := b.cfg.SubnetCIDR(subnetTier, i)
			if err != nil {
				return fmt.Errorf("failed to compute %s subnet %d: %w", subnetTier, i+1, err)
			}
			b.add(SubnetKey(subnetTier, i), KindSubnet, TierNetwork, b.names.Subnet(subnetTier, i), SubnetSpec{
				VPC:              KeyVPC,
				CIDR:             cidr,
				AvailabilityZone: az,
				SubnetTier:       subnetTier,
				Public:           subnetTier == config.SubnetPublic,
			})
		}
	}

	b.add(KeyElasticIP, KindElasticIP, TierNetwork, b.names.ElasticIP(), ElasticIPSpec{})
	b.add(KeyNATGateway, KindNATGateway, TierNetwork, b.names.NATGateway(), NATGatewaySpec{
		Subnet:          SubnetKey(config.SubnetPublic, 0),
		ElasticIP:       KeyElasticIP,
		InternetGateway: KeyInternetGateway,
	})

	b.add(KeyPublicRoutes, KindRouteTable, TierNetwork, b.names.RouteTable("public"), RouteTableSpec{
		VPC:             KeyVPC,
		Subnets:         b.subnetKeys(config.SubnetPublic),
		InternetGateway: KeyInternetGateway,
	})
	private := append(b.subnetKeys(config.SubnetApp), b.subnetKeys(config.SubnetDatabase)...)
	b.add(KeyPrivateRoutes, KindRouteTable, TierNetwork, b.names.RouteTable("private"), RouteTableSpec{
		VPC:        KeyVPC,
		Subnets:    private,
		NATGateway: KeyNATGateway,
	})
	return nil
}

// securityGroups chains the tiers: internet -> public ALB -> frontend ->
// internal ALB -> backend -> database. Each hop only admits the previous
// hop's group on the next hop's port.
func (b *builder) securityGroups() {
	fe, be := b.cfg.Frontend.Port, b.cfg.Backend.Port
	groups := []struct {
		role, description string
		rule              IngressRule
	}{
		{SGPublicALB, "Public load balancer", IngressRule{Port: ListenerPort, CIDR: allIPv4, Description: "HTTP from the internet"}},
		{SGFrontend, "Frontend tasks", IngressRule{Port: fe, SourceGroup: SecurityGroupKey(SGPublicALB), Description: "From public load balancer"}},
		{SGInternalALB, "Internal load balancer", IngressRule{Port: ListenerPort, SourceGroup: SecurityGroupKey(SGFrontend), Description: "From frontend tasks"}},
		{SGBackend, "Backend tasks", IngressRule{Port: be, SourceGroup: SecurityGroupKey(SGInternalALB), Description: "From internal load balancer"}},
		{SGDatabase, "PostgreSQL", IngressRule{Port: PostgresPort, SourceGroup: SecurityGroupKey(SGBackend), Description: "From backend tasks"}},
	}
	for _, g := range groups {
		b.add(SecurityGroupKey(g.role), KindSecurityGroup, TierNetwork, b.names.SecurityGroup(g.role), SecurityGroupSpec{
			VPC:         KeyVPC,
			Description: fmt.Sprintf("%s (%s)", g.description, b.names.Prefix()),
			Ingress:     []IngressRule{g.rule},
		})
	}
}

func (b *builder) data() {
	db := b.cfg.Database

	b.add(KeySecret, KindSecret, TierData, b.names.Secret(), SecretSpec{
		Description:    "Database credentials for " + b.names.Prefix(),
		Username:       db.Username,
		Engine:         PostgresEngine,
		PasswordLength: PasswordLength,
	})
	b.add(KeyDBSubnetGroup, KindDBSubnetGroup, TierData, b.names.DBSubnetGroup(), DBSubnetGroupSpec{
		Description: "Database subnets for " + b.names.Prefix(),
		Subnets:     b.subnetKeys(config.SubnetDatabase),
	})
	b.add(KeyDBInstance, KindDBInstance, TierData, b.names.DBInstance(), DBInstanceSpec{
		Engine:              PostgresEngine,
		EngineVersion:       db.EngineVersion,
		InstanceClass:       db.InstanceClass,
		AllocatedStorage:    db.AllocatedStorage,
		DatabaseName:        db.Name,
		Port:                PostgresPort,
		MultiAZ:             db.MultiAZ,
		BackupRetentionDays: db.BackupRetention(),
		SubnetGroup:         KeyDBSubnetGroup,
		SecurityGroups:      []string{SecurityGroupKey(SGDatabase)},
		Secret:              KeySecret,
	})
	b.add(KeyConnectionSecret, KindConnectionSecret, TierData, b.names.Secret(), ConnectionSecretSpec{
		Secret:       KeySecret,
		Database:     KeyDBInstance,
		DatabaseName: db.Name,
	})
}

func (b *builder) edge() {
	balancers := []struct {
		key, listener, role, sg string
		internal                bool
		subnets                 []string
	}{
		{KeyPublicLB, KeyPublicListener, config.RoleFrontend, SGPublicALB, false, b.subnetKeys(config.SubnetPublic)},
		{KeyInternalLB, KeyInternalListener, config.RoleBackend, SGInternalALB, true, b.subnetKeys(config.SubnetApp)},
	}
	for _, lb := range balancers {
		svc := b.cfg.Service(lb.role)
		lbName := "public"
		if lb.internal {
			lbName = "internal"
		}
		b.add(lb.key, KindLoadBalancer, TierEdge, b.names.LoadBalancer(lbName), LoadBalancerSpec{
			Internal:       lb.internal,
			Subnets:        lb.subnets,
			SecurityGroups: []string{SecurityGroupKey(lb.sg)},
		})
		b.add(TargetGroupKey(lb.role), KindTargetGroup, TierEdge, b.names.TargetGroup(lb.role), TargetGroupSpec{
			VPC:        KeyVPC,
			Port:       svc.Port,
			HealthPath: svc.HealthPath,
		})
		b.add(lb.listener, KindListener, TierEdge, b.names.Listener(lbName), ListenerSpec{
			LoadBalancer: lb.key,
			TargetGroup:  TargetGroupKey(lb.role),
			Port:         ListenerPort,
		})
	}
}

func (b *builder) compute() {
	for _, role := range []string{config.RoleFrontend, config.RoleBackend} {
		b.add(LogGroupKey(role), KindLogGroup, TierCompute, b.names.LogGroup(role), LogGroupSpec{
			RetentionDays: b.cfg.Logging.RetentionDays,
		})
	}
	b.add(KeyExecutionRole, KindExecutionRole, TierCompute, b.names.ExecutionRole(), ExecutionRoleSpec{
		Secrets: []string{KeySecret},
	})
	b.add(KeyCluster, KindCluster, TierCompute, b.names.Cluster(), ClusterSpec{ContainerInsights: true})

	b.service(config.RoleBackend, KeyInternalListener, nil, []SecretEnv{
		{Name: DatabaseURLEnv, Secret: KeyConnectionSecret},
	})
	b.service(config.RoleFrontend, KeyPublicListener, []EndpointEnv{
		{Name: BackendURLEnv, LoadBalancer: KeyInternalLB},
	}, nil)
}

func (b *builder) service(role, listener string, endpoints []EndpointEnv, secrets []SecretEnv) {
	svc := b.cfg.Service(role)

	env := map[string]string{
		EnvironmentEnv: b.cfg.Environment,
		PortEnv:        strconv.Itoa(svc.Port),
		// Load balancers forward from inside the VPC.
		TrustedProxiesEnv: b.cfg.Network.VPCCIDR,
	}
	for k, v := range svc.Environment {
		env[k] = v
	}

	b.add(TaskDefinitionKey(role), KindTaskDefinition, TierCompute, b.names.TaskFamily(role), TaskDefinitionSpec{
		ContainerName: role,
		Image:         svc.Image,
		CPU:           svc.CPU,
		Memory:        svc.Memory,
		Port:          svc.Port,
		HealthPath:    svc.HealthPath,
		ExecutionRole: KeyExecutionRole,
		LogGroup:      LogGroupKey(role),
		Environment:   env,
		Secrets:       secrets,
		Endpoints:     endpoints,
	})
	b.add(ServiceKey(role), KindService, TierCompute, b.names.Service(role), ServiceSpec{
		Cluster:        KeyCluster,
		TaskDefinition: TaskDefinitionKey(role),
		TargetGroup:    TargetGroupKey(role),
		Listener:       listener,
		Subnets:        b.subnetKeys(config.SubnetApp),
		SecurityGroups: []string{SecurityGroupKey(role)},
		DesiredCount:   svc.DesiredCount,
		ContainerName:  role,
		ContainerPort:  svc.Port,
	})
	b.add(AutoscalingKey(role), KindAutoscaling, TierCompute, b.names.ScalingPolicy(role), AutoscalingSpec{
		Cluster:     KeyCluster,
		Service:     ServiceKey(role),
		MinCapacity: svc.MinCapacity,
		MaxCapacity: svc.MaxCapacity,
		CPUTarget:   svc.CPUTarget,
	})
}
