package provisioning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SetGet(t *testing.T) {
	t.Parallel()
	s := NewState()

	_, ok := s.Get("vpc/main")
	assert.False(t, ok)

	s.Set("vpc/main", Outputs{ID: "vpc-1"})
	out, ok := s.Get("vpc/main")
	require.True(t, ok)
	assert.Equal(t, "vpc-1", out.ID)
	assert.Equal(t, 1, s.Len())
}

func TestState_Require(t *testing.T) {
	t.Parallel()
	s := NewState()
	s.Set("secret/database", Outputs{ARN: "arn:secret"})

	out, err := s.Require("secret/database")
	require.NoError(t, err)
	assert.Equal(t, "arn:secret", out.ARN)

	_, err = s.Require("db-instance/main")
	require.ErrorIs(t, err, ErrMissingOutputs)
	assert.Contains(t, err.Error(), "db-instance/main")
}

func TestState_IDs(t *testing.T) {
	t.Parallel()
	s := NewState()
	s.Set("subnet/app-1", Outputs{ID: "subnet-1"})
	s.Set("subnet/app-2", Outputs{ID: "subnet-2"})

	ids, err := s.IDs([]string{"subnet/app-2", "subnet/app-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"subnet-2", "subnet-1"}, ids)

	_, err = s.IDs([]string{"subnet/app-1", "subnet/app-3"})
	assert.ErrorIs(t, err, ErrMissingOutputs)
}

func TestState_DeleteKeysSnapshot(t *testing.T) {
	t.Parallel()
	s := NewState()
	s.Set("b", Outputs{ID: "2"})
	s.Set("a", Outputs{ID: "1"})
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	snap := s.Snapshot()
	s.Delete("a")
	assert.Equal(t, []string{"b"}, s.Keys())
	assert.Len(t, snap, 2, "snapshot is a copy")
}

func TestState_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	s := NewState()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i%26))
			s.Set(key, Outputs{Port: i})
			s.Get(key)
			s.Keys()
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, s.Len())
}
