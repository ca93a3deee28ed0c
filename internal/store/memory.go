package store

import (
	"context"
	"sync"
)

// Memory is an in-process SnapshotStore, used when no Redis is
// configured and in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Save(_ context.Context, roomID, canvasData string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[roomID] = canvasData
	return nil
}

func (m *Memory) Load(_ context.Context, roomID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[roomID]
	if !ok {
		return "", ErrNotFound
	}
	return data, nil
}

func (m *Memory) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, roomID)
	return nil
}
