package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/config"
	awsplatform "github.com/tierstack/tierstack/internal/platform/aws"
	"github.com/tierstack/tierstack/internal/provisioning"
	testutil "github.com/tierstack/tierstack/internal/testing"
)

// saveAndRestoreFactories replaces the factories with test doubles and
// restores them after the test. It returns the captured stdout.
func saveAndRestoreFactories(t *testing.T) *bytes.Buffer {
	t.Helper()
	origNewCloud := newCloud
	origNewObjectStore := newObjectStore
	origNewLogger := newLogger
	origLoadTimeouts := loadTimeouts
	origLoadConfigFile := loadConfigFile
	origFindConfigFile := findConfigFile
	origStdout := stdout
	origIsTerminal := isTerminal
	origNewDestroyProvisioner := newDestroyProvisioner

	t.Cleanup(func() {
		newCloud = origNewCloud
		newObjectStore = origNewObjectStore
		newLogger = origNewLogger
		loadTimeouts = origLoadTimeouts
		loadConfigFile = origLoadConfigFile
		findConfigFile = origFindConfigFile
		stdout = origStdout
		isTerminal = origIsTerminal
		newDestroyProvisioner = origNewDestroyProvisioner
	})

	var out bytes.Buffer
	stdout = &out
	isTerminal = func() bool { return false }
	newLogger = func() (*zap.Logger, error) { return zap.NewNop(), nil }
	loadTimeouts = testutil.FastTimeouts
	newCloud = func(context.Context, *config.Config, *config.Timeouts) (awsplatform.InfrastructureManager, error) {
		return nil, errors.New("no cloud in this test")
	}
	newObjectStore = func(context.Context, *config.Config) (provisioning.ObjectStore, error) {
		return nil, errors.New("no object store in this test")
	}
	return &out
}

// writeConfig writes cfg into a temporary directory and returns its path.
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.WriteFile(cfg, path))
	return path
}

// useCloud makes the handlers talk to cloud.
func useCloud(cloud awsplatform.InfrastructureManager) {
	newCloud = func(context.Context, *config.Config, *config.Timeouts) (awsplatform.InfrastructureManager, error) {
		return cloud, nil
	}
}

func outputsPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), provisioning.DefaultOutputsFile)
}

func TestLoadConfig_EmptyPath_NoDefaultFile(t *testing.T) {
	saveAndRestoreFactories(t)
	findConfigFile = func() (string, error) {
		return "", config.ErrConfigNotFound
	}

	_, _, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
	assert.Contains(t, err.Error(), "tierctl init")
}

func TestLoadConfig_EmptyPath_UsesDefaultFile(t *testing.T) {
	saveAndRestoreFactories(t)
	path := writeConfig(t, testutil.MinimalConfig())
	findConfigFile = func() (string, error) { return path, nil }

	cfg, got, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "shop", cfg.Project)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	saveAndRestoreFactories(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unterminated"), 0o600))

	_, _, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from")
}

func TestOutputStores(t *testing.T) {
	saveAndRestoreFactories(t)
	ctx := context.Background()

	stores, err := outputStores(ctx, testutil.MinimalConfig(), "/work/tierstack.yaml")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, provisioning.FileStore{Path: "/work/.tierstack/outputs.json"}, stores[0])

	_, err = outputStores(ctx, testutil.NewConfigBuilder().WithStateBucket("shop-state").Build(), "tierstack.yaml")
	require.Error(t, err, "bucket configured but no client")

	bucket := testutil.NewFakeBucket()
	newObjectStore = func(context.Context, *config.Config) (provisioning.ObjectStore, error) { return bucket, nil }
	stores, err = outputStores(ctx, testutil.NewConfigBuilder().WithStateBucket("shop-state").Build(), "tierstack.yaml")
	require.NoError(t, err)
	require.Len(t, stores, 2)
	bs, ok := stores[1].(provisioning.BucketStore)
	require.True(t, ok)
	assert.Equal(t, "shop-state", bs.Bucket)
	assert.Equal(t, "shop-test/outputs.json", bs.Key)
}
