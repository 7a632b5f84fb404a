package edge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/provisioning/network"
	testutil "github.com/tierstack/tierstack/internal/testing"
)

func newTestContext(t *testing.T, cloud *testutil.FakeCloud) *provisioning.Context {
	t.Helper()
	cfg := testutil.NewConfigBuilder().Build()
	graph, err := manifest.Build(cfg)
	require.NoError(t, err)

	ctx := provisioning.NewContext(testutil.TestContext(t), cfg, graph, cloud, zaptest.NewLogger(t))
	ctx.Timeouts = testutil.FastTimeouts()
	require.NoError(t, network.NewProvisioner().Provision(ctx))
	return ctx
}

func TestProvisioner_Name(t *testing.T) {
	assert.Equal(t, "edge", NewProvisioner().Name())
}

func TestProvisioner_CreatesBothBalancers(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)

	require.NoError(t, NewProvisioner().Provision(ctx))

	assert.Equal(t, 2, cloud.Count(testutil.TypeLoadBalancer))
	assert.Equal(t, 2, cloud.Count(testutil.TypeTargetGroup))
	assert.Equal(t, 2, cloud.Count(testutil.TypeListener))

	public, ok := ctx.State.Get(manifest.KeyPublicLB)
	require.True(t, ok)
	internal, ok := ctx.State.Get(manifest.KeyInternalLB)
	require.True(t, ok)
	assert.False(t, strings.HasPrefix(public.DNSName, "internal-"))
	assert.True(t, strings.HasPrefix(internal.DNSName, "internal-"))
}

func TestProvisioner_PlacesBalancersInTheirSubnets(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	ids := func(keys ...string) []string {
		out, err := ctx.State.IDs(keys)
		require.NoError(t, err)
		return out
	}

	public, ok := cloud.Get(testutil.TypeLoadBalancer, ctx.NameOf(manifest.KeyPublicLB))
	require.True(t, ok)
	opts := public.Spec.(aws.LoadBalancerOpts)
	assert.False(t, opts.Internal)
	assert.Equal(t, ids(manifest.SubnetKey(config.SubnetPublic, 0), manifest.SubnetKey(config.SubnetPublic, 1)), opts.SubnetIDs)
	assert.Equal(t, ids(manifest.SecurityGroupKey(manifest.SGPublicALB)), opts.SecurityGroupIDs)

	internal, ok := cloud.Get(testutil.TypeLoadBalancer, ctx.NameOf(manifest.KeyInternalLB))
	require.True(t, ok)
	opts = internal.Spec.(aws.LoadBalancerOpts)
	assert.True(t, opts.Internal)
	assert.Equal(t, ids(manifest.SubnetKey(config.SubnetApp, 0), manifest.SubnetKey(config.SubnetApp, 1)), opts.SubnetIDs)
	assert.Equal(t, ids(manifest.SecurityGroupKey(manifest.SGInternalALB)), opts.SecurityGroupIDs)
}

func TestProvisioner_TargetGroupsUseServicePorts(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	fe, ok := ctx.State.Get(manifest.TargetGroupKey(config.RoleFrontend))
	require.True(t, ok)
	assert.Equal(t, config.DefaultFrontendPort, fe.Port)

	be, ok := ctx.State.Get(manifest.TargetGroupKey(config.RoleBackend))
	require.True(t, ok)
	assert.Equal(t, config.DefaultBackendPort, be.Port)

	tg, ok := cloud.Get(testutil.TypeTargetGroup, ctx.NameOf(manifest.TargetGroupKey(config.RoleBackend)))
	require.True(t, ok)
	assert.Equal(t, "/health", tg.Spec.(aws.TargetGroupOpts).HealthPath)
}

func TestProvisioner_ListenersForwardToTargetGroups(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	lb, _ := ctx.State.Get(manifest.KeyInternalLB)
	tg, _ := ctx.State.Get(manifest.TargetGroupKey(config.RoleBackend))

	listener, ok := cloud.Get(testutil.TypeListener, lb.ARN+":80")
	require.True(t, ok)
	assert.Equal(t, tg.ARN, listener.Spec)

	out, ok := ctx.State.Get(manifest.KeyInternalListener)
	require.True(t, ok)
	assert.Equal(t, lb.DNSName, out.DNSName)
	assert.Equal(t, manifest.ListenerPort, out.Port)
}

func TestDeleteListener_ByLoadBalancerName(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	r, ok := ctx.Graph.Get(manifest.KeyPublicListener)
	require.True(t, ok)
	require.NoError(t, deleteListener(ctx, r))

	assert.Equal(t, 1, cloud.Count(testutil.TypeListener))
	assert.Equal(t, 1, cloud.CallCount("DeleteListener "+ctx.NameOf(manifest.KeyPublicLB)+":80"))

	// Already gone.
	require.NoError(t, deleteListener(ctx, r))
}

func TestDeleteTargetGroup_InUse(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	r, _ := ctx.Graph.Get(manifest.TargetGroupKey(config.RoleFrontend))
	err := deleteTargetGroup(ctx, r)
	require.Error(t, err)
	assert.True(t, aws.IsDependencyViolation(err))
}
