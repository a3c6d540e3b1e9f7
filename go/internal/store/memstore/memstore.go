// Package memstore is an in-memory Store used by tests and local
// development. Writes are serialized by a single mutex, which gives
// PutIfAbsent the same lost-the-race semantics as the production stores.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcdev12/deadpool/go/internal/store"
)

type MemStore struct {
	mu    sync.RWMutex
	items map[store.Key]map[string]any
}

func New() *MemStore {
	return &MemStore{items: make(map[store.Key]map[string]any)}
}

func (m *MemStore) Get(_ context.Context, key store.Key) (*store.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, store.ErrNotFound)
	}
	return &store.Item{Key: key, Attributes: cloneAttrs(attrs)}, nil
}

func (m *MemStore) Put(_ context.Context, item store.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.Key] = cloneAttrs(item.Attributes)
	return nil
}

func (m *MemStore) PutIfAbsent(_ context.Context, item store.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.Key]; ok {
		return fmt.Errorf("put %s/%s: %w", item.PK, item.SK, store.ErrConditionFailed)
	}
	m.items[item.Key] = cloneAttrs(item.Attributes)
	return nil
}

func (m *MemStore) Delete(_ context.Context, key store.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemStore) QueryPrefix(_ context.Context, pk, skPrefix string) ([]store.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Item
	for key, attrs := range m.items {
		if key.PK == pk && strings.HasPrefix(key.SK, skPrefix) {
			out = append(out, store.Item{Key: key, Attributes: cloneAttrs(attrs)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SK < out[j].SK })
	return out, nil
}

func (m *MemStore) BatchGet(_ context.Context, keys []store.Key) ([]store.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Item, 0, len(keys))
	for _, key := range keys {
		if attrs, ok := m.items[key]; ok {
			out = append(out, store.Item{Key: key, Attributes: cloneAttrs(attrs)})
		}
	}
	return out, nil
}

// Len reports the number of stored items. Test helper.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
