package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()
	var count atomic.Int32

	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}}
	}

	require.NoError(t, RunParallel(context.Background(), tasks))
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunParallel(context.Background(), nil))
	assert.NoError(t, RunParallel(context.Background(), []Task{}))
}

func TestRunParallel_JoinsErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	err := RunParallel(context.Background(), []Task{
		{Name: "ok", Func: func(_ context.Context) error { return nil }},
		{Name: "subnet.public-1", Func: func(_ context.Context) error { return err1 }},
		{Name: "subnet.public-2", Func: func(_ context.Context) error { return err2 }},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
	assert.Contains(t, err.Error(), "subnet.public-1: error 1")
	assert.Contains(t, err.Error(), "subnet.public-2: error 2")
}

func TestRunParallel_AllTasksComplete(t *testing.T) {
	t.Parallel()
	var completed atomic.Int32

	err := RunParallel(context.Background(), []Task{
		{Name: "fast-fail", Func: func(_ context.Context) error { return errors.New("fast fail") }},
		{Name: "slow-1", Func: func(_ context.Context) error {
			time.Sleep(30 * time.Millisecond)
			completed.Add(1)
			return nil
		}},
		{Name: "slow-2", Func: func(_ context.Context) error {
			time.Sleep(30 * time.Millisecond)
			completed.Add(1)
			return nil
		}},
	})

	require.Error(t, err)
	assert.Equal(t, int32(2), completed.Load(), "RunParallel must wait for every task")
}

func TestRunParallelLimit_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	var current, peak atomic.Int32

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			c := current.Add(1)
			for {
				old := peak.Load()
				if c <= old || peak.CompareAndSwap(old, c) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		}}
	}

	require.NoError(t, RunParallelLimit(context.Background(), tasks, 2))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestRunParallelLimit_CancelledContextSkipsPendingTasks(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	tasks := []Task{
		{Name: "a", Func: func(ctx context.Context) error { ran.Add(1); return ctx.Err() }},
		{Name: "b", Func: func(ctx context.Context) error { ran.Add(1); return ctx.Err() }},
	}

	err := RunParallelLimit(ctx, tasks, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
