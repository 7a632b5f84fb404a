package provisioning

import (
	"context"

	"go.uber.org/zap"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/platform/aws"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	Graph    *manifest.Graph
	State    *State
	Cloud    aws.InfrastructureManager
	Observer Observer
	Timeouts *config.Timeouts
}

// NewContext creates a new provisioning context. A nil logger discards
// all events.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	graph *manifest.Graph,
	cloud aws.InfrastructureManager,
	logger *zap.Logger,
) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Graph:    graph,
		State:    NewState(),
		Cloud:    cloud,
		Observer: NewZapObserver(logger),
		Timeouts: config.LoadTimeouts(),
	}
}

// NameOf returns the physical name of the resource with the given key, or
// "" when the graph does not contain it.
func (c *Context) NameOf(key string) string {
	if r, ok := c.Graph.Get(key); ok {
		return r.Name
	}
	return ""
}
