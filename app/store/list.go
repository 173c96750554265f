package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// List is a persistent ordered sequence over a single named collection,
// with the same write-through contract as Map: every mutation saves the
// complete current sequence before returning, reads never touch the
// backend.
type List struct {
	name    string
	backend Backend

	mu   sync.RWMutex
	data []any
}

// NewList makes a List over the named collection, seeded from the backend.
// Missing or corrupt records start the sequence empty, the latter with a
// warning.
func NewList(name string, backend Backend) *List {
	l := &List{name: name, backend: backend, data: []any{}}

	raw, err := backend.Load(name)
	if err != nil {
		log.Printf("[WARN] failed to load collection %q, starting empty: %v", name, err)
		return l
	}
	if len(raw) == 0 {
		return l
	}
	if err := json.Unmarshal(raw, &l.data); err != nil {
		log.Printf("[WARN] corrupt record for collection %q, starting empty: %v", name, err)
		l.data = []any{}
	}
	return l
}

// Name returns the collection name.
func (l *List) Name() string { return l.name }

// Len returns the number of elements.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.data)
}

// At returns the element at index i, or ErrIndexOutOfRange.
func (l *List) At(i int) (any, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.data) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(l.data))
	}
	return l.data[i], nil
}

// Items returns a snapshot copy of the whole sequence.
func (l *List) Items() []any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.data)
}

// Append adds value at the end and persists the sequence. On failure the
// in-memory state is left as it was before the call.
func (l *List) Append(value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data = append(l.data, value)
	if err := l.flush(); err != nil {
		l.data = l.data[:len(l.data)-1]
		return err
	}
	return nil
}

// RemoveAt deletes the element at index i and persists. An out-of-range
// index returns ErrIndexOutOfRange without touching the backend.
func (l *List) RemoveAt(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.data) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(l.data))
	}
	prev := slices.Clone(l.data)
	l.data = slices.Delete(l.data, i, i+1)
	if err := l.flush(); err != nil {
		l.data = prev
		return err
	}
	return nil
}

// Remove deletes the first element equal to value and persists, reporting
// whether anything was removed. No match means no save.
func (l *List) Remove(value any) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.data, func(v any) bool { return reflect.DeepEqual(v, value) })
	if idx < 0 {
		return false, nil
	}
	prev := slices.Clone(l.data)
	l.data = slices.Delete(l.data, idx, idx+1)
	if err := l.flush(); err != nil {
		l.data = prev
		return false, err
	}
	return true, nil
}

// Clear removes all elements and persists the empty sequence.
func (l *List) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.data
	l.data = []any{}
	if err := l.flush(); err != nil {
		l.data = prev
		return err
	}
	return nil
}

// flush writes the full current state under the collection name. Callers
// must hold the write lock.
func (l *List) flush() error {
	data, err := json.Marshal(l.data)
	if err != nil {
		return fmt.Errorf("collection %q is not serializable: %w", l.name, err)
	}
	if err := l.backend.Save(l.name, data); err != nil {
		return fmt.Errorf("failed to save collection %q: %w", l.name, err)
	}
	return nil
}
