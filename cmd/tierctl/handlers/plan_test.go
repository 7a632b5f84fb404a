package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
	testutil "github.com/tierstack/tierstack/internal/testing"
)

func TestPlan_ListsLevels(t *testing.T) {
	out := saveAndRestoreFactories(t)
	path := writeConfig(t, testutil.MinimalConfig())

	require.NoError(t, Plan(path))

	text := out.String()
	assert.Contains(t, text, "tierctl plan: shop-test (eu-west-1)")
	assert.Contains(t, text, "Level 1")
	assert.Contains(t, text, "vpc/main")
	assert.Contains(t, text, manifest.ServiceKey("frontend"))
	assert.Contains(t, text, "Warnings")
	assert.NotContains(t, text, "Errors")
	assert.NotContains(t, text, "\x1b[", "plain output when not a terminal")

	// The VPC is created before anything that depends on it.
	assert.Less(t, strings.Index(text, "vpc/main"), strings.Index(text, manifest.ServiceKey("backend")))
}

func TestPlan_MissingConfig(t *testing.T) {
	saveAndRestoreFactories(t)
	err := Plan("/nonexistent/tierstack.yaml")
	require.Error(t, err)
}

func TestRenderPlan_Errors(t *testing.T) {
	text := renderPlan(planView{
		Title:  "shop-test",
		Total:  3,
		Errors: []provisioning.ValidationError{{Field: "graph", Message: "cycle", Severity: provisioning.SeverityError}},
	}, false)

	assert.Contains(t, text, "Errors")
	assert.Contains(t, text, "[!!] [error] graph: cycle")
	assert.Contains(t, text, "plan is not applicable")
}

func TestGraph_Formats(t *testing.T) {
	out := saveAndRestoreFactories(t)
	path := writeConfig(t, testutil.MinimalConfig())

	require.NoError(t, Graph(path, "dot"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "digraph"))

	out.Reset()
	require.NoError(t, Graph(path, "json"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.NotEmpty(t, doc)

	out.Reset()
	require.NoError(t, Graph(path, "yaml"))
	assert.Contains(t, out.String(), "vpc/main")

	assert.Error(t, Graph(path, "svg"))
}
