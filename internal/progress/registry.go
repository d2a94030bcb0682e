package progress

import (
	"context"
	"sync"
)

// Snapshot is the transfer progress known for one message at call time.
// Values are percentages in [0, 100]; a registry miss reads as zero.
type Snapshot struct {
	Upload   int `json:"upload"`
	Download int `json:"download"`
}

// Registry is the per-message transfer-progress store keyed by msgID.
type Registry interface {
	Snapshot(ctx context.Context, msgID string) Snapshot
	SetUpload(ctx context.Context, msgID string, progress int) error
	SetDownload(ctx context.Context, msgID string, progress int) error
}

// MemoryRegistry is an in-process Registry for the synchronous API path
// and tests.
type MemoryRegistry struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{snapshots: make(map[string]Snapshot)}
}

func (m *MemoryRegistry) Snapshot(_ context.Context, msgID string) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[msgID]
}

func (m *MemoryRegistry) SetUpload(_ context.Context, msgID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snapshots[msgID]
	s.Upload = progress
	m.snapshots[msgID] = s
	return nil
}

func (m *MemoryRegistry) SetDownload(_ context.Context, msgID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snapshots[msgID]
	s.Download = progress
	m.snapshots[msgID] = s
	return nil
}
