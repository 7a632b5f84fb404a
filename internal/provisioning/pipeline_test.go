package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	t.Parallel()
	pipeline := NewPipeline(&mockPhase{name: "network"}, &mockPhase{name: "data"})

	require.NotNil(t, pipeline)
	assert.Len(t, pipeline.Phases, 2)
	assert.Equal(t, "network", pipeline.Phases[0].Name())
	assert.Equal(t, "data", pipeline.Phases[1].Name())
}

func TestNewPipeline_Empty(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t)
	pipeline := NewPipeline()

	assert.Empty(t, pipeline.Phases)
	assert.NoError(t, pipeline.Run(ctx))
}

func TestPipeline_Run_Order(t *testing.T) {
	t.Parallel()
	ctx, observer := newTestContext(t)
	var executed []string
	record := func(name string) Phase {
		return phaseFunc(name, func(_ *Context) error {
			executed = append(executed, name)
			return nil
		})
	}

	require.NoError(t, NewPipeline(record("network"), record("data"), record("edge"), record("compute")).Run(ctx))

	assert.Equal(t, []string{"network", "data", "edge", "compute"}, executed)
	assert.Len(t, observer.Events(EventPhaseStarted), 4)
	assert.Len(t, observer.Events(EventPhaseCompleted), 4)
	assert.Equal(t, "network (1/4)", observer.Events(EventPhaseStarted)[0].Phase)
}

func TestPipeline_Run_StopsOnError(t *testing.T) {
	t.Parallel()
	ctx, observer := newTestContext(t)
	var executed []string
	boom := errors.New("boom")

	pipeline := NewPipeline(
		phaseFunc("network", func(_ *Context) error { executed = append(executed, "network"); return nil }),
		&mockPhase{name: "data", err: boom},
		phaseFunc("edge", func(_ *Context) error { executed = append(executed, "edge"); return nil }),
	)

	err := pipeline.Run(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "data phase failed: boom", err.Error())
	assert.Equal(t, []string{"network"}, executed)
	assert.Len(t, observer.Events(EventPhaseFailed), 1)
}

func TestRunPhases_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Context = cancelled

	ran := false
	err := RunPhases(ctx, []Phase{phaseFunc("network", func(_ *Context) error { ran = true; return nil })})

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "before network")
	assert.False(t, ran)
}
