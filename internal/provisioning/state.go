package provisioning

import (
	"fmt"
	"sort"
	"sync"
)

// Outputs are the identifiers a resource exposes to its dependents once it
// has been ensured.
type Outputs struct {
	ID       string `json:"id,omitempty"`
	ARN      string `json:"arn,omitempty"`
	DNSName  string `json:"dnsName,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// State holds the outputs of every ensured resource, keyed by graph key.
// Handlers of one level run concurrently, so all access is locked.
type State struct {
	mu      sync.RWMutex
	outputs map[string]Outputs
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{outputs: make(map[string]Outputs)}
}

// Set records the outputs of a resource.
func (s *State) Set(key string, out Outputs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[key] = out
}

// Get returns the outputs of a resource.
func (s *State) Get(key string) (Outputs, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.outputs[key]
	return out, ok
}

// Require returns the outputs of a resource or an error naming it.
func (s *State) Require(key string) (Outputs, error) {
	out, ok := s.Get(key)
	if !ok {
		return Outputs{}, fmt.Errorf("%w: %s", ErrMissingOutputs, key)
	}
	return out, nil
}

// IDs returns the IDs of the given resources in order.
func (s *State) IDs(keys []string) ([]string, error) {
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		out, err := s.Require(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, out.ID)
	}
	return ids, nil
}

// Delete forgets a resource.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outputs, key)
}

// Len returns the number of recorded resources.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outputs)
}

// Keys returns the recorded keys, sorted.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.outputs))
	for k := range s.outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all outputs.
func (s *State) Snapshot() map[string]Outputs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Outputs, len(s.outputs))
	for k, v := range s.outputs {
		out[k] = v
	}
	return out
}
