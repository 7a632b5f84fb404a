package data

import (
	"errors"
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

// newTestContext returns a context whose network tier already exists.
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
	assert.Equal(t, "data", NewProvisioner().Name())
}

func TestProvisioner_CreatesDatabase(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)

	require.NoError(t, NewProvisioner().Provision(ctx))

	assert.Equal(t, 1, cloud.Count(testutil.TypeSecret))
	assert.Equal(t, 1, cloud.Count(testutil.TypeDBSubnetGroup))
	assert.Equal(t, 1, cloud.Count(testutil.TypeDBInstance))

	db, ok := ctx.State.Get(manifest.KeyDBInstance)
	require.True(t, ok)
	assert.Contains(t, db.Endpoint, ".rds.amazonaws.com")
	assert.Equal(t, manifest.PostgresPort, db.Port)

	instance, ok := cloud.Get(testutil.TypeDBInstance, ctx.NameOf(manifest.KeyDBInstance))
	require.True(t, ok)
	opts := instance.Spec.(aws.DBInstanceOpts)
	assert.Equal(t, config.DefaultDatabaseUsername, opts.Username)
	assert.Len(t, opts.Password, manifest.PasswordLength)
	assert.Equal(t, config.DefaultDatabaseName, opts.DatabaseName)

	sg, _ := ctx.State.Get(manifest.SecurityGroupKey(manifest.SGDatabase))
	assert.Equal(t, []string{sg.ID}, opts.SecurityGroupIDs)
}

func TestProvisioner_CompletesConnectionSecret(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	secretName := ctx.NameOf(manifest.KeySecret)
	creds, ok := cloud.Secret(secretName)
	require.True(t, ok)

	db, _ := ctx.State.Get(manifest.KeyDBInstance)
	assert.Equal(t, db.Endpoint, creds.Host)
	assert.Equal(t, manifest.PostgresPort, creds.Port)
	assert.Equal(t, config.DefaultDatabaseName, creds.DBName)
	assert.Equal(t, config.DefaultDatabaseUsername, creds.Username)
	assert.NotEmpty(t, creds.Password)

	conn, ok := ctx.State.Get(manifest.KeyConnectionSecret)
	require.True(t, ok)
	secret, _ := ctx.State.Get(manifest.KeySecret)
	assert.Equal(t, secret.ARN, conn.ARN)
}

func TestProvisioner_RerunKeepsPasswordAndSkipsRewrite(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))
	before, _ := cloud.Secret(ctx.NameOf(manifest.KeySecret))

	again := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(again))
	after, _ := cloud.Secret(again.NameOf(manifest.KeySecret))

	assert.Equal(t, before, after)
	assert.Equal(t, 1, cloud.CallCount("PutCredentials"))
	assert.Equal(t, 1, cloud.Count(testutil.TypeDBInstance))
}

func TestProvisioner_DatabaseFailure(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	cloud.FailOn("EnsureDBInstance", errors.New("InsufficientDBInstanceCapacity"))
	ctx := newTestContext(t, cloud)

	err := NewProvisioner().Provision(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InsufficientDBInstanceCapacity")

	_, ok := ctx.State.Get(manifest.KeyConnectionSecret)
	assert.False(t, ok)
	assert.Zero(t, cloud.CallCount("PutCredentials"))
}

func TestEnsureConnectionSecret_UnreadableSecret(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	ctx.State.Set(manifest.KeySecret, provisioning.Outputs{ID: "missing"})
	ctx.State.Set(manifest.KeyDBInstance, provisioning.Outputs{Endpoint: "db.local", Port: 5432})

	r, ok := ctx.Graph.Get(manifest.KeyConnectionSecret)
	require.True(t, ok)
	_, err := ensureConnectionSecret(ctx, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read credentials")
}

func TestHandlers_ConnectionSecretDeleteIsNoop(t *testing.T) {
	cloud := testutil.NewFakeCloud("eu-west-1")
	ctx := newTestContext(t, cloud)
	require.NoError(t, NewProvisioner().Provision(ctx))

	r, _ := ctx.Graph.Get(manifest.KeyConnectionSecret)
	require.NoError(t, Handlers()[manifest.KindConnectionSecret].Delete(ctx, r))
	assert.Equal(t, 1, cloud.Count(testutil.TypeSecret))
}
