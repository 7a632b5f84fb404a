package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
	testutil "github.com/tierstack/tierstack/internal/testing"
)

func TestApply_CreatesStackAndSavesOutputs(t *testing.T) {
	out := saveAndRestoreFactories(t)
	cloud := testutil.NewFakeCloud("eu-west-1")
	useCloud(cloud)
	path := writeConfig(t, testutil.MinimalConfig())

	require.NoError(t, Apply(testutil.TestContext(t), path))

	assert.Equal(t, 1, cloud.Count(testutil.TypeVPC))
	assert.Equal(t, 2, cloud.Count(testutil.TypeService))
	assert.Equal(t, 1, cloud.Count(testutil.TypeDBInstance))

	saved, err := provisioning.FileStore{Path: outputsPath(path)}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shop", saved.Project)
	assert.Contains(t, saved.PublicURL, ".elb.amazonaws.com")
	assert.Contains(t, saved.BackendURL, "internal-")
	assert.Contains(t, saved.DatabaseEndpoint, ".rds.amazonaws.com:5432")
	assert.NotEmpty(t, saved.SecretARN)
	assert.Contains(t, saved.Resources, manifest.KeyVPC)

	assert.Contains(t, out.String(), "Public URL:")
}

func TestApply_IsIdempotent(t *testing.T) {
	saveAndRestoreFactories(t)
	cloud := testutil.NewFakeCloud("eu-west-1")
	useCloud(cloud)
	path := writeConfig(t, testutil.MinimalConfig())

	require.NoError(t, Apply(testutil.TestContext(t), path))
	total := cloud.Total()
	revisions := cloud.CallCount("RegisterTaskDefinition")

	require.NoError(t, Apply(testutil.TestContext(t), path))
	assert.Equal(t, total, cloud.Total())
	assert.Equal(t, revisions*2, cloud.CallCount("RegisterTaskDefinition"))
	for _, family := range cloud.Names(testutil.TypeTaskDefinition) {
		assert.Len(t, cloud.Revisions(family), 1, "unchanged task definition keeps its revision")
	}
}

func TestApply_FailureStillSavesPartialOutputs(t *testing.T) {
	saveAndRestoreFactories(t)
	cloud := testutil.NewFakeCloud("eu-west-1")
	cloud.FailOn("EnsureService", errors.New("service did not stabilize"))
	useCloud(cloud)
	path := writeConfig(t, testutil.MinimalConfig())

	err := Apply(testutil.TestContext(t), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply failed")
	assert.Contains(t, err.Error(), "service did not stabilize")

	saved, err := provisioning.FileStore{Path: outputsPath(path)}.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, saved.Resources, manifest.KeyVPC)
	assert.NotEmpty(t, saved.PublicURL, "edge tier finished before compute failed")
}

func TestApply_ValidationFailureTouchesNothing(t *testing.T) {
	saveAndRestoreFactories(t)
	cloud := testutil.NewFakeCloud("eu-west-1")
	useCloud(cloud)
	path := writeConfig(t, testutil.MinimalConfig())

	loadConfigFile = func(string) (*config.Config, error) {
		cfg := testutil.MinimalConfig()
		cfg.Frontend.Image = ""
		return cfg, nil
	}

	err := Apply(testutil.TestContext(t), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
	assert.Zero(t, cloud.Total())
	assert.NoFileExists(t, outputsPath(path))
}

func TestApply_CloudFactoryError(t *testing.T) {
	saveAndRestoreFactories(t)
	path := writeConfig(t, testutil.MinimalConfig())

	err := Apply(testutil.TestContext(t), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create AWS client")
}

func TestApply_WritesStateBucket(t *testing.T) {
	saveAndRestoreFactories(t)
	cloud := testutil.NewFakeCloud("eu-west-1")
	useCloud(cloud)
	bucket := testutil.NewFakeBucket()
	newObjectStore = func(context.Context, *config.Config) (provisioning.ObjectStore, error) { return bucket, nil }
	path := writeConfig(t, testutil.NewConfigBuilder().WithStateBucket("shop-state").Build())

	require.NoError(t, Apply(testutil.TestContext(t), path))
	assert.Equal(t, []string{"shop-state/shop-test/outputs.json"}, bucket.Keys())
	assert.FileExists(t, outputsPath(path))
}
