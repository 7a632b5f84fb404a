package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/config"
)

func buildSample(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(config.Sample("shop", "prod", "eu-west-1"))
	require.NoError(t, err)
	return g
}

func TestBuild_Topology(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	counts := map[Kind]int{}
	for _, r := range g.Resources() {
		counts[r.Kind]++
	}
	assert.Equal(t, map[Kind]int{
		KindVPC: 1, KindInternetGateway: 1, KindSubnet: 6, KindElasticIP: 1, KindNATGateway: 1,
		KindRouteTable: 2, KindSecurityGroup: 5, KindSecret: 1, KindDBSubnetGroup: 1,
		KindDBInstance: 1, KindConnectionSecret: 1, KindLogGroup: 2, KindExecutionRole: 1,
		KindCluster: 1, KindLoadBalancer: 2, KindTargetGroup: 2, KindListener: 2,
		KindTaskDefinition: 2, KindService: 2, KindAutoscaling: 2,
	}, counts)
	assert.Equal(t, 37, g.Len())
	assert.Len(t, g.ByTier(TierData), 4)
	assert.Len(t, g.ByTier(TierEdge), 6)
}

func TestBuild_SubnetLayout(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	want := map[string]string{
		"subnet/public-1": "10.0.0.0/24",
		"subnet/public-2": "10.0.1.0/24",
		"subnet/app-1":    "10.0.10.0/24",
		"subnet/app-2":    "10.0.11.0/24",
		"subnet/db-1":     "10.0.20.0/24",
		"subnet/db-2":     "10.0.21.0/24",
	}
	for key, cidr := range want {
		r, ok := g.Get(key)
		require.True(t, ok, key)
		spec := r.Spec.(SubnetSpec)
		assert.Equal(t, cidr, spec.CIDR, key)
	}

	nat, _ := g.Get(KeyNATGateway)
	assert.Equal(t, "subnet/public-1", nat.Spec.(NATGatewaySpec).Subnet)

	private, _ := g.Get(KeyPrivateRoutes)
	assert.Equal(t, KeyNATGateway, private.Spec.(RouteTableSpec).NATGateway)
	assert.ElementsMatch(t, []string{"subnet/app-1", "subnet/app-2", "subnet/db-1", "subnet/db-2"}, private.Spec.(RouteTableSpec).Subnets)
}

func TestBuild_SecurityGroupChain(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	tests := []struct {
		role   string
		port   int
		source string
		cidr   string
	}{
		{SGPublicALB, 80, "", "0.0.0.0/0"},
		{SGFrontend, 3000, SecurityGroupKey(SGPublicALB), ""},
		{SGInternalALB, 80, SecurityGroupKey(SGFrontend), ""},
		{SGBackend, 8000, SecurityGroupKey(SGInternalALB), ""},
		{SGDatabase, 5432, SecurityGroupKey(SGBackend), ""},
	}
	for _, tt := range tests {
		r, ok := g.Get(SecurityGroupKey(tt.role))
		require.True(t, ok, tt.role)
		rules := r.Spec.(SecurityGroupSpec).Ingress
		require.Len(t, rules, 1, tt.role)
		assert.Equal(t, tt.port, rules[0].Port, tt.role)
		assert.Equal(t, tt.source, rules[0].SourceGroup, tt.role)
		assert.Equal(t, tt.cidr, rules[0].CIDR, tt.role)
	}
}

func TestBuild_SecretInjection(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	backend, _ := g.Get(TaskDefinitionKey(config.RoleBackend))
	spec := backend.Spec.(TaskDefinitionSpec)
	assert.Equal(t, []SecretEnv{{Name: "DATABASE_URL", Secret: KeyConnectionSecret}}, spec.Secrets)
	assert.Contains(t, backend.DependsOn, KeyConnectionSecret)
	assert.Equal(t, "prod", spec.Environment["ENVIRONMENT"])
	assert.Equal(t, "8000", spec.Environment["PORT"])
	assert.Equal(t, config.DefaultVPCCIDR, spec.Environment["TRUSTED_PROXIES"])

	frontend, _ := g.Get(TaskDefinitionKey(config.RoleFrontend))
	fspec := frontend.Spec.(TaskDefinitionSpec)
	assert.Equal(t, []EndpointEnv{{Name: "BACKEND_URL", LoadBalancer: KeyInternalLB}}, fspec.Endpoints)
	assert.Empty(t, fspec.Secrets)

	role, _ := g.Get(KeyExecutionRole)
	assert.Equal(t, []string{KeySecret}, role.DependsOn)
}

func TestBuild_DatabaseIsPrivate(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	group, _ := g.Get(KeyDBSubnetGroup)
	assert.Equal(t, []string{"subnet/db-1", "subnet/db-2"}, group.Spec.(DBSubnetGroupSpec).Subnets)

	db, _ := g.Get(KeyDBInstance)
	spec := db.Spec.(DBInstanceSpec)
	assert.Equal(t, "postgres", spec.Engine)
	assert.Equal(t, 5432, spec.Port)
	assert.Equal(t, []string{SecurityGroupKey(SGDatabase)}, spec.SecurityGroups)

	internal, _ := g.Get(KeyInternalLB)
	assert.True(t, internal.Spec.(LoadBalancerSpec).Internal)
	public, _ := g.Get(KeyPublicLB)
	assert.False(t, public.Spec.(LoadBalancerSpec).Internal)
}

func TestBuild_LevelsRespectDependencies(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	levels, err := g.Levels()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ecs-cluster/main", "elastic-ip/nat", "log-group/backend", "log-group/frontend",
		"secret/database", "vpc/main",
	}, keysOf(levels[0]))

	levelOf := map[string]int{}
	for i, level := range levels {
		for _, r := range level {
			levelOf[r.Key] = i
		}
	}
	for _, r := range g.Resources() {
		for _, dep := range r.DependsOn {
			assert.Less(t, levelOf[dep], levelOf[r.Key], "%s must come after %s", r.Key, dep)
		}
	}

	order, err := g.Order()
	require.NoError(t, err)
	last := order[len(order)-1]
	assert.Equal(t, KindAutoscaling, last.Kind)
}

func TestBuild_TagsAndNames(t *testing.T) {
	t.Parallel()
	g := buildSample(t)

	lb, _ := g.Get(KeyPublicLB)
	assert.Equal(t, "shop-prod-public-alb", lb.Name)
	assert.Equal(t, "shop-prod-public-alb", lb.Tags["Name"])
	assert.Equal(t, "edge", lb.Tags["tierstack:tier"])
	assert.Equal(t, "platform", lb.Tags["owner"])

	logs, _ := g.Get(LogGroupKey(config.RoleBackend))
	assert.Equal(t, "/ecs/shop-prod/backend", logs.Name)
}

func TestBuild_LongProjectNameStaysWithinLimits(t *testing.T) {
	t.Parallel()
	cfg := config.Sample("very-long-project-name-for-shop", "staging", "eu-west-1")
	g, err := Build(cfg)
	require.NoError(t, err)

	for _, r := range g.Resources() {
		assert.LessOrEqual(t, len(r.Name), NameLimit(r.Kind), r.Key)
	}
	tg, _ := g.Get(TargetGroupKey(config.RoleFrontend))
	assert.Equal(t, "vlpnfs-staging-frontend-tg", tg.Name)
}

func TestBuild_RejectsAbbreviationAWSWouldRefuse(t *testing.T) {
	t.Parallel()
	cfg := config.Sample("agentic-fastapi-stage3v3-deploy", "production", "eu-west-1")
	cfg.Abbreviation = "My_App"

	_, err := Build(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a valid load-balancer name")
}
