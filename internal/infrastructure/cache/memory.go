package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when no Redis URL is configured
// and in tests. Expired items are dropped lazily on read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	clock clockwork.Clock
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{items: make(map[string]memoryItem), clock: clock}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !item.expiresAt.IsZero() && !m.clock.Now().Before(item.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiresAt.Equal(item.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = m.clock.Now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored items, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
