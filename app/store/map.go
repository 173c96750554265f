package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// Map is a persistent string-keyed mapping over a single named collection.
// Every mutating call saves the complete current state to the backend
// before it returns; reads are served from memory only. The in-memory map
// is the single source of truth between mutations.
//
// A collection name should be owned by one Map instance at a time. Writes
// are wholesale (last writer wins), concurrent writers to the same name are
// not merged.
type Map struct {
	name    string
	backend Backend

	mu   sync.RWMutex
	data map[string]any
}

// NewMap makes a Map over the named collection, seeded from the backend.
// A record that fails to load or decode is treated as empty with a warning,
// keeping the dashboard usable over bad historical data.
func NewMap(name string, backend Backend) *Map {
	m := &Map{name: name, backend: backend, data: map[string]any{}}

	raw, err := backend.Load(name)
	if err != nil {
		log.Printf("[WARN] failed to load collection %q, starting empty: %v", name, err)
		return m
	}
	if len(raw) == 0 {
		return m
	}
	if err := json.Unmarshal(raw, &m.data); err != nil {
		log.Printf("[WARN] corrupt record for collection %q, starting empty: %v", name, err)
		m.data = map[string]any{}
	}
	return m
}

// Name returns the collection name.
func (m *Map) Name() string { return m.name }

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// GetDefault returns the value for key, or def if the key is absent.
func (m *Map) GetDefault(key string, def any) any {
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Keys returns all keys, sorted.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data))
}

// Items returns a snapshot copy of the whole mapping.
func (m *Map) Items() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// Set stores value under key and persists the mapping. Setting a key to
// the value it already holds still saves. On failure the in-memory state
// is left as it was before the call.
func (m *Map) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.data[key]
	m.data[key] = value
	if err := m.flush(); err != nil {
		if existed {
			m.data[key] = prev
		} else {
			delete(m.data, key)
		}
		return err
	}
	return nil
}

// Update applies all entries at once and persists with a single save.
func (m *Map) Update(entries map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := maps.Clone(m.data)
	maps.Copy(m.data, entries)
	if err := m.flush(); err != nil {
		m.data = prev
		return err
	}
	return nil
}

// Delete removes key and persists. Deleting an absent key is a no-op and
// does not trigger a save.
func (m *Map) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.data[key]
	if !existed {
		return nil
	}
	delete(m.data, key)
	if err := m.flush(); err != nil {
		m.data[key] = prev
		return err
	}
	return nil
}

// Clear removes all entries and persists the empty mapping.
func (m *Map) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.data
	m.data = map[string]any{}
	if err := m.flush(); err != nil {
		m.data = prev
		return err
	}
	return nil
}

// flush writes the full current state under the collection name. Callers
// must hold the write lock.
func (m *Map) flush() error {
	data, err := json.Marshal(m.data)
	if err != nil {
		return fmt.Errorf("collection %q is not serializable: %w", m.name, err)
	}
	if err := m.backend.Save(m.name, data); err != nil {
		return fmt.Errorf("failed to save collection %q: %w", m.name, err)
	}
	return nil
}
