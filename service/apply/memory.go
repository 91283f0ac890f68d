package apply

import (
	"context"
	"sync"

	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

// Memory is an in-process sink that keeps the applied values queryable.
// It is the default sink and the one tests inspect.
type Memory struct {
	mu      sync.RWMutex
	last    map[proc.ID]tier.Tuple
	changes []*Change
}

var _ Sink = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{last: make(map[proc.ID]tier.Tuple)}
}

// Apply records the batch.
func (m *Memory) Apply(_ context.Context, changes []*Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, change := range changes {
		m.last[change.Process] = change.Tuple()
	}
	m.changes = append(m.changes, changes...)
	return nil
}

// Last returns the most recently applied tuple for a process.
func (m *Memory) Last(id proc.ID) (tier.Tuple, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tuple, ok := m.last[id]
	return tuple, ok
}

// Changes returns every recorded change in apply order.
func (m *Memory) Changes() []*Change {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Change, len(m.changes))
	copy(out, m.changes)
	return out
}

// Forget drops the history for a process that died.
func (m *Memory) Forget(id proc.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.last, id)
}
