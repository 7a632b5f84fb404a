package provisioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/util/async"
)

// Apply ensures resources level by level. Resources of one level run
// concurrently, bounded by Timeouts.Parallelism, and a level starts only
// after the previous one succeeded. Dependencies outside resources must
// already have outputs in ctx.State.
func Apply(ctx *Context, phase string, resources []*manifest.Resource, handlers Handlers) error {
	levels, err := layer(resources)
	if err != nil {
		return err
	}

	for i, level := range levels {
		ctx.Observer.Event(Event{
			Type:    EventLevelStarted,
			Phase:   phase,
			Message: fmt.Sprintf("applying level %d/%d (%d resources)", i+1, len(levels), len(level)),
		})

		tasks := make([]async.Task, 0, len(level))
		for _, r := range level {
			tasks = append(tasks, async.Task{
				Name: r.Key,
				Func: func(context.Context) error { return ensure(ctx, phase, r, handlers) },
			})
		}
		if err := async.RunParallelLimit(ctx, tasks, parallelism(ctx)); err != nil {
			return fmt.Errorf("level %d: %w", i+1, err)
		}
	}
	return nil
}

func ensure(ctx *Context, phase string, r *manifest.Resource, handlers Handlers) error {
	h, ok := handlers[r.Kind]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoHandler, r.Kind)
	}
	for _, dep := range r.DependsOn {
		if _, ok := ctx.State.Get(dep); !ok {
			return fmt.Errorf("%w: %s", ErrMissingOutputs, dep)
		}
	}

	LogResourceCreating(ctx.Observer, phase, r.Key, r.Name)
	out, err := h.Ensure(ctx, r)
	if err != nil {
		LogResourceFailed(ctx.Observer, phase, r.Key, err)
		return err
	}
	ctx.State.Set(r.Key, out)
	LogResourceCreated(ctx.Observer, phase, r.Key, r.Name, firstNonEmpty(out.ID, out.ARN))
	return nil
}

// Destroy deletes resources in reverse level order. Every resource of a
// level is attempted even when some fail; the next level is only started
// when the whole level succeeded, since its resources are still in use.
func Destroy(ctx *Context, phase string, resources []*manifest.Resource, handlers Handlers) error {
	levels, err := layer(resources)
	if err != nil {
		return err
	}

	for i := len(levels) - 1; i >= 0; i-- {
		tasks := make([]async.Task, 0, len(levels[i]))
		for _, r := range levels[i] {
			tasks = append(tasks, async.Task{
				Name: r.Key,
				Func: func(context.Context) error { return remove(ctx, phase, r, handlers) },
			})
		}
		if err := async.RunParallelLimit(ctx, tasks, parallelism(ctx)); err != nil {
			return fmt.Errorf("level %d: %w", i+1, err)
		}
	}
	return nil
}

func remove(ctx *Context, phase string, r *manifest.Resource, handlers Handlers) error {
	h, ok := handlers[r.Kind]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoHandler, r.Kind)
	}

	LogResourceDeleting(ctx.Observer, phase, r.Key, r.Name)
	if err := h.Delete(ctx, r); err != nil {
		LogResourceFailed(ctx.Observer, phase, r.Key, err)
		return err
	}
	ctx.State.Delete(r.Key)
	LogResourceDeleted(ctx.Observer, phase, r.Key, r.Name)
	return nil
}

// layer orders a subset of the graph. References leaving the subset do
// not constrain the order; Apply checks them against the state instead.
func layer(resources []*manifest.Resource) ([][]*manifest.Resource, error) {
	sub := manifest.NewGraph()
	for _, r := range resources {
		sub.Add(r)
	}
	levels, err := sub.Levels()
	if err != nil {
		return nil, err
	}
	total := 0
	for _, level := range levels {
		total += len(level)
	}
	if total != len(resources) {
		return nil, errors.New("duplicate resources in apply set")
	}
	return levels, nil
}

func parallelism(ctx *Context) int {
	if ctx.Timeouts == nil {
		return 0
	}
	return ctx.Timeouts.Parallelism
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
