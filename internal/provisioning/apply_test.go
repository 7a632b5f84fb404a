package provisioning

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/manifest"
)

func TestApply_RespectsDependencies(t *testing.T) {
	ctx, _ := newTestContext(t)
	handlers, log := recordingHandlers()

	require.NoError(t, Apply(ctx, "all", ctx.Graph.Resources(), handlers))

	assert.Equal(t, ctx.Graph.Len(), log.len())
	for _, r := range ctx.Graph.Resources() {
		for _, dep := range r.DependsOn {
			assert.Less(t, log.index(dep), log.index(r.Key), "%s before %s", dep, r.Key)
		}
		out, ok := ctx.State.Get(r.Key)
		require.True(t, ok)
		assert.Equal(t, r.Key, out.ID)
	}
}

func TestApply_TierByTier(t *testing.T) {
	ctx, _ := newTestContext(t)
	handlers, _ := recordingHandlers()

	for _, tier := range manifest.Tiers() {
		require.NoError(t, Apply(ctx, string(tier), ctx.Graph.ByTier(tier), handlers), tier)
	}
	assert.Equal(t, ctx.Graph.Len(), ctx.State.Len())
}

func TestApply_ReapplyReportsEveryResourceEnsured(t *testing.T) {
	ctx, observer := newTestContext(t)
	handlers, _ := recordingHandlers()

	require.NoError(t, Apply(ctx, "all", ctx.Graph.Resources(), handlers))
	require.NoError(t, Apply(ctx, "all", ctx.Graph.Resources(), handlers))

	assert.Len(t, observer.Events(EventResourceCreating), 2*ctx.Graph.Len())
	assert.Len(t, observer.Events(EventResourceCreated), 2*ctx.Graph.Len())
	assert.Empty(t, observer.Events(EventResourceFailed))
}

func TestApply_MissingOutputsOutsideSet(t *testing.T) {
	ctx, _ := newTestContext(t)
	handlers, log := recordingHandlers()

	// The data tier references subnets and security groups of the network
	// tier, which have not been applied.
	err := Apply(ctx, "data", ctx.Graph.ByTier(manifest.TierData), handlers)
	require.ErrorIs(t, err, ErrMissingOutputs)
	_, ok := ctx.State.Get(manifest.KeyDBInstance)
	assert.False(t, ok)
	assert.Equal(t, -1, log.index(manifest.KeyDBInstance))
}

func TestApply_NoHandler(t *testing.T) {
	ctx, _ := newTestContext(t)
	err := Apply(ctx, "network", ctx.Graph.ByTier(manifest.TierNetwork), Handlers{})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestApply_StopsAfterFailingLevel(t *testing.T) {
	ctx, observer := newTestContext(t)
	handlers, log := recordingHandlers()
	handlers[manifest.KindInternetGateway] = HandlerFuncs{
		EnsureFunc: func(_ *Context, _ *manifest.Resource) (Outputs, error) {
			return Outputs{}, errors.New("boom")
		},
	}

	err := Apply(ctx, "network", ctx.Graph.ByTier(manifest.TierNetwork), handlers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), manifest.KeyInternetGateway)

	assert.NotEqual(t, -1, log.index(manifest.KeyVPC))
	assert.Equal(t, -1, log.index(manifest.KeyNATGateway))
	assert.Len(t, observer.Events(EventResourceFailed), 1)
}

func TestApply_RunsLevelConcurrently(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Timeouts.Parallelism = 3

	var inFlight, peak atomic.Int32
	slow := HandlerFuncs{EnsureFunc: func(_ *Context, r *manifest.Resource) (Outputs, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return Outputs{ID: r.Key}, nil
	}}

	// Six subnets share one level once the VPC exists.
	ctx.State.Set(manifest.KeyVPC, Outputs{ID: "vpc-1"})
	require.NoError(t, Apply(ctx, "network", ctx.Graph.ByKind(manifest.KindSubnet), Handlers{manifest.KindSubnet: slow}))

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestApply_EmitsLevelEvents(t *testing.T) {
	ctx, observer := newTestContext(t)
	handlers, _ := recordingHandlers()

	require.NoError(t, Apply(ctx, "network", ctx.Graph.ByTier(manifest.TierNetwork), handlers))

	levels := observer.Events(EventLevelStarted)
	require.NotEmpty(t, levels)
	assert.Contains(t, levels[0].Message, "level 1/")
	assert.Len(t, observer.Events(EventResourceCreated), len(ctx.Graph.ByTier(manifest.TierNetwork)))
}

func TestApply_DuplicateResources(t *testing.T) {
	ctx, _ := newTestContext(t)
	handlers, _ := recordingHandlers()
	vpc, ok := ctx.Graph.Get(manifest.KeyVPC)
	require.True(t, ok)

	err := Apply(ctx, "network", []*manifest.Resource{vpc, vpc}, handlers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestDestroy_ReverseOrder(t *testing.T) {
	ctx, _ := newTestContext(t)
	ensure, _ := recordingHandlers()
	require.NoError(t, Apply(ctx, "all", ctx.Graph.Resources(), ensure))

	handlers, log := recordingHandlers()
	require.NoError(t, Destroy(ctx, "destroy", ctx.Graph.Resources(), handlers))

	assert.Zero(t, ctx.State.Len())
	for _, r := range ctx.Graph.Resources() {
		for _, dep := range r.DependsOn {
			assert.Greater(t, log.index(dep), log.index(r.Key), "%s after %s", dep, r.Key)
		}
	}
}

func TestDestroy_AttemptsWholeLevel(t *testing.T) {
	ctx, _ := newTestContext(t)
	handlers, log := recordingHandlers()
	failing := errors.New("still in use")
	handlers[manifest.KindAutoscaling] = HandlerFuncs{
		EnsureFunc: handlers[manifest.KindVPC].Ensure,
		DeleteFunc: func(_ *Context, r *manifest.Resource) error {
			if r.Key == manifest.AutoscalingKey("frontend") {
				return failing
			}
			log.add(r.Key)
			return nil
		},
	}

	subset := []*manifest.Resource{}
	for _, key := range []string{manifest.AutoscalingKey("frontend"), manifest.AutoscalingKey("backend"), manifest.KeyCluster} {
		r, ok := ctx.Graph.Get(key)
		require.True(t, ok)
		subset = append(subset, r)
	}

	err := Destroy(ctx, "destroy", subset, handlers)
	require.ErrorIs(t, err, failing)
	assert.NotEqual(t, -1, log.index(manifest.AutoscalingKey("backend")))
	assert.Equal(t, -1, log.index(manifest.KeyCluster), "later levels wait for the failed one")
}

func TestSpecOf(t *testing.T) {
	r := &manifest.Resource{Key: "vpc/main", Spec: manifest.VPCSpec{CIDR: "10.0.0.0/16"}}

	spec, err := SpecOf[manifest.VPCSpec](r)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/16", spec.CIDR)

	_, err = SpecOf[manifest.SubnetSpec](r)
	assert.ErrorIs(t, err, ErrUnexpectedSpec)
}

func TestMerge(t *testing.T) {
	a := HandlerFuncs{}
	b := HandlerFuncs{DeleteFunc: func(*Context, *manifest.Resource) error { return nil }}

	merged := Merge(Handlers{manifest.KindVPC: a}, Handlers{manifest.KindVPC: b, manifest.KindSubnet: a})
	assert.Len(t, merged, 2)
	assert.NotNil(t, merged[manifest.KindVPC].(HandlerFuncs).DeleteFunc)
}

func TestHandlerFuncs_NilDelete(t *testing.T) {
	assert.NoError(t, HandlerFuncs{}.Delete(nil, nil))
}
