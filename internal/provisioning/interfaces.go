package provisioning

import (
	"errors"
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
)

var (
	// ErrMissingOutputs is returned when a resource is applied before one
	// of its dependencies has outputs.
	ErrMissingOutputs = errors.New("dependency has no outputs")

	// ErrNoHandler is returned for a resource kind without a handler.
	ErrNoHandler = errors.New("no handler for resource kind")

	// ErrUnexpectedSpec is returned when a handler receives another kind's spec.
	ErrUnexpectedSpec = errors.New("unexpected spec type")
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Handler ensures and deletes the resources of one kind.
type Handler interface {
	// Ensure creates the resource when it is missing and returns its
	// outputs. Dependencies' outputs are available in ctx.State.
	Ensure(ctx *Context, r *manifest.Resource) (Outputs, error)

	// Delete removes the resource. A resource that is already gone is
	// not an error.
	Delete(ctx *Context, r *manifest.Resource) error
}

// HandlerFuncs adapts a pair of functions to Handler.
type HandlerFuncs struct {
	EnsureFunc func(ctx *Context, r *manifest.Resource) (Outputs, error)
	DeleteFunc func(ctx *Context, r *manifest.Resource) error
}

// Ensure calls EnsureFunc.
func (h HandlerFuncs) Ensure(ctx *Context, r *manifest.Resource) (Outputs, error) {
	return h.EnsureFunc(ctx, r)
}

// Delete calls DeleteFunc, or does nothing when it is nil.
func (h HandlerFuncs) Delete(ctx *Context, r *manifest.Resource) error {
	if h.DeleteFunc == nil {
		return nil
	}
	return h.DeleteFunc(ctx, r)
}

// Handlers maps resource kinds to their handlers.
type Handlers map[manifest.Kind]Handler

// Merge returns the union of several handler sets. Later sets win.
func Merge(sets ...Handlers) Handlers {
	out := make(Handlers)
	for _, set := range sets {
		for kind, h := range set {
			out[kind] = h
		}
	}
	return out
}

// SpecOf returns the spec of r as T.
func SpecOf[T manifest.Spec](r *manifest.Resource) (T, error) {
	spec, ok := r.Spec.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s has %T, want %T", ErrUnexpectedSpec, r.Key, r.Spec, zero)
	}
	return spec, nil
}
