package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
)

// MemoryRepository keeps entries in process. It enforces contiguous
// sequence numbers the way the SQL schema does.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Append(ctx context.Context, entries []*audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := int64(len(m.entries)) + 1
	for i, e := range entries {
		if e.Sequence != next+int64(i) {
			return fmt.Errorf("sequence %d out of order, expected %d", e.Sequence, next+int64(i))
		}
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MemoryRepository) Last(ctx context.Context) (int64, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return 0, "", nil
	}
	last := m.entries[len(m.entries)-1]
	return last.Sequence, last.Hash, nil
}

func (m *MemoryRepository) BySession(ctx context.Context, sessionID string) ([]*audit.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryRepository) Range(ctx context.Context, from int64, limit int) ([]*audit.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if from < 1 {
		from = 1
	}
	start := int(from - 1)
	if start >= len(m.entries) {
		return nil, nil
	}
	end := len(m.entries)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return append([]*audit.Entry(nil), m.entries[start:end]...), nil
}

// Entries returns every stored entry in sequence order.
func (m *MemoryRepository) Entries() []*audit.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*audit.Entry(nil), m.entries...)
}
