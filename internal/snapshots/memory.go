package snapshots

import (
	"context"
	"sync"
)

// Memory keeps snapshots in process. Payloads are stored encoded so callers never share slices.
type Memory[T any] struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{data: make(map[string][]byte)}
}

func (m *Memory[T]) Load(ctx context.Context, userID string) ([]T, error) {
	userID, err := validUser(userID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	payload := m.data[userID]
	m.mu.RUnlock()
	return decode[T](payload)
}

func (m *Memory[T]) Save(ctx context.Context, userID string, items []T) error {
	userID, err := validUser(userID)
	if err != nil {
		return err
	}
	payload, err := encode(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[userID] = payload
	m.mu.Unlock()
	return nil
}
