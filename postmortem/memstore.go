package postmortem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Distrotech/asterisk/id"
)

// MemStore is an in-process Store implementation, used by tests and by
// deployments that don't need postmortem entries to survive a restart.
type MemStore struct {
	mu      sync.Mutex
	entries map[id.PostmortemID]*Entry
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[id.PostmortemID]*Entry)}
}

func (m *MemStore) Push(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MemStore) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*Entry
	for _, e := range m.entries {
		if opts.Queue != "" && e.Queue != opts.Queue {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (m *MemStore) Get(ctx context.Context, entryID id.PostmortemID) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (m *MemStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.CreatedAt.Before(before) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}
