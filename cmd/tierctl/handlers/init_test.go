package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/config"
)

func TestInit_WritesLoadableConfig(t *testing.T) {
	out := saveAndRestoreFactories(t)
	path := filepath.Join(t.TempDir(), "stack.yaml")

	require.NoError(t, Init(InitOptions{Path: path, Project: "shop", Environment: "prod", Region: "eu-central-1"}))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Project)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.Contains(t, out.String(), "tierctl plan -c "+path)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	saveAndRestoreFactories(t)
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	err := Init(InitOptions{Path: path, Project: "shop", Environment: "dev", Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	require.NoError(t, Init(InitOptions{Path: path, Project: "shop", Environment: "dev", Region: "us-east-1", Force: true}))
	_, err = config.LoadFile(path)
	assert.NoError(t, err)
}

func TestInit_InvalidValues(t *testing.T) {
	saveAndRestoreFactories(t)
	path := filepath.Join(t.TempDir(), "stack.yaml")

	err := Init(InitOptions{Path: path, Project: "Not Valid!", Environment: "dev", Region: "us-east-1"})
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
