package provisioning

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierstack/tierstack/internal/config"
	"github.com/tierstack/tierstack/internal/manifest"
	testutil "github.com/tierstack/tierstack/internal/testing"
)

// MockObserver records events. Apply emits from several goroutines, so
// access is locked.
type MockObserver struct {
	mu       sync.Mutex
	events   []Event
	messages []string
	fields   map[string]string
}

func NewMockObserver() *MockObserver {
	return &MockObserver{fields: make(map[string]string)}
}

func (m *MockObserver) Printf(format string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, format)
}

func (m *MockObserver) Event(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockObserver) WithFields(fields map[string]string) Observer {
	next := NewMockObserver()
	for k, v := range m.fields {
		next.fields[k] = v
	}
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (m *MockObserver) Events(types ...EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(types) == 0 {
		return append([]Event(nil), m.events...)
	}
	var out []Event
	for _, e := range m.events {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
			}
		}
	}
	return out
}

// mockPhase implements the Phase interface for testing.
type mockPhase struct {
	name string
	err  error
}

func (m *mockPhase) Name() string               { return m.name }
func (m *mockPhase) Provision(_ *Context) error { return m.err }

type funcPhase struct {
	name string
	fn   func(*Context) error
}

func (p *funcPhase) Name() string                 { return p.name }
func (p *funcPhase) Provision(ctx *Context) error { return p.fn(ctx) }

func phaseFunc(name string, fn func(*Context) error) Phase {
	return &funcPhase{name: name, fn: fn}
}

// newTestContext returns a context over the sample stack with a recording
// observer and no cloud.
func newTestContext(t *testing.T) (*Context, *MockObserver) {
	t.Helper()
	cfg := testutil.NewConfigBuilder().Build()
	graph, err := manifest.Build(cfg)
	require.NoError(t, err)

	observer := NewMockObserver()
	ctx := &Context{
		Context:  context.Background(),
		Config:   cfg,
		Graph:    graph,
		State:    NewState(),
		Observer: observer,
		Timeouts: config.TestTimeouts(),
	}
	return ctx, observer
}

// recordingHandlers returns handlers for every kind that record the keys
// they were called with and output the key as ID.
func recordingHandlers() (Handlers, *keyLog) {
	log := &keyLog{}
	h := HandlerFuncs{
		EnsureFunc: func(_ *Context, r *manifest.Resource) (Outputs, error) {
			log.add(r.Key)
			return Outputs{ID: r.Key}, nil
		},
		DeleteFunc: func(_ *Context, r *manifest.Resource) error {
			log.add(r.Key)
			return nil
		},
	}
	handlers := make(Handlers)
	for _, kind := range manifest.Kinds() {
		handlers[kind] = h
	}
	return handlers, log
}

type keyLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *keyLog) add(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
}

func (l *keyLog) index(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, k := range l.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (l *keyLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
