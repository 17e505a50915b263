// internal/history/memory.go
package history

import (
	"context"
	"sync"

	"github.com/bkaplan/brickwatch/pkg/types"
)

// MemoryStore keeps history in process memory. It backs tests and
// one-shot runs where persistence across invocations is not needed.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]types.Snapshot
	reports   []*types.ChangeReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]types.Snapshot),
	}
}

func (m *MemoryStore) LoadSnapshot(_ context.Context, category string) (types.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if snapshot, ok := m.snapshots[category]; ok {
		return snapshot, nil
	}
	return types.Snapshot{Category: category}, nil
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, snapshot types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.Category] = snapshot
	return nil
}

func (m *MemoryStore) SaveReport(_ context.Context, report *types.ChangeReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return nil
}

// Reports returns the saved reports in insertion order.
func (m *MemoryStore) Reports() []*types.ChangeReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.ChangeReport, len(m.reports))
	copy(out, m.reports)
	return out
}

func (m *MemoryStore) Close() error { return nil }
