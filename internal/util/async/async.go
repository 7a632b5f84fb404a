package async

import (
	"context"
	"errors"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes all tasks concurrently and waits for every one of
// them to finish. Errors of all failed tasks are joined, each prefixed with
// the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "log-group.frontend", Func: ensureFrontendLogs},
//	    {Name: "log-group.backend", Func: ensureBackendLogs},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	return RunParallelLimit(ctx, tasks, 0)
}

// RunParallelLimit is RunParallel with at most limit tasks in flight.
// A limit <= 0 means unbounded. Tasks that have not started when ctx is
// cancelled are not run and report the context error.
func RunParallelLimit(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	errs := make([]error, len(tasks))
	sem := make(chan struct{}, limit)
	done := make(chan struct{}, len(tasks))

	for i, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = fmt.Errorf("%s: %w", task.Name, ctx.Err())
			done <- struct{}{}
			continue
		}
		go func() {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
		}()
	}

	for range len(tasks) {
		<-done
	}

	return errors.Join(errs...)
}
