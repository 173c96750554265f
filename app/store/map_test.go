package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingBackend wraps a Backend and records save calls, to verify
// write-through behavior without peeking into the storage medium.
type countingBackend struct {
	Backend
	saves int
}

func (c *countingBackend) Save(name string, data []byte) error {
	c.saves++
	return c.Backend.Save(name, data)
}

// failingBackend rejects every save, for testing rollback on backend errors.
type failingBackend struct{}

func (f *failingBackend) Load(string) ([]byte, error) { return nil, nil }
func (f *failingBackend) Save(string, []byte) error   { return errors.New("backend gone") }
func (f *failingBackend) Close() error                { return nil }

func TestMap_SetPersists(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			positions := NewMap("positions", backend)
			require.NoError(t, positions.Set("AAPL", map[string]any{"qty": 10, "avg_price": 150.0}))

			// fresh container over the same collection sees the mutation
			reloaded := NewMap("positions", backend)
			got, ok := reloaded.Get("AAPL")
			require.True(t, ok)
			assert.Equal(t, map[string]any{"qty": 10.0, "avg_price": 150.0}, got)
		})
	}
}

func TestMap_EmptyDefault(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			m := NewMap("never-saved", backend)
			assert.Equal(t, 0, m.Len())
			assert.Empty(t, m.Keys())
			_, ok := m.Get("anything")
			assert.False(t, ok)
		})
	}
}

func TestMap_DeletePersists(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			m := NewMap("positions", backend)
			require.NoError(t, m.Set("AAPL", 1))
			require.NoError(t, m.Set("MSFT", 2))
			require.NoError(t, m.Delete("AAPL"))

			reloaded := NewMap("positions", backend)
			assert.False(t, reloaded.Has("AAPL"))
			assert.True(t, reloaded.Has("MSFT"))
		})
	}
}

func TestMap_DeleteAbsentNoSave(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingBackend{Backend: backend}

	m := NewMap("positions", counting)
	require.NoError(t, m.Set("AAPL", 1))
	saved := counting.saves

	require.NoError(t, m.Delete("TSLA")) // not present
	assert.Equal(t, saved, counting.saves, "deleting an absent key must not save")
}

func TestMap_SetSameValueStillSaves(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingBackend{Backend: backend}

	m := NewMap("settings", counting)
	require.NoError(t, m.Set("capital", 100000))
	require.NoError(t, m.Set("capital", 100000))
	assert.Equal(t, 2, counting.saves)
}

func TestMap_SerializationErrorLeavesStateUnchanged(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := NewMap("settings", backend)
	require.NoError(t, m.Set("capital", 100000))

	err = m.Set("capital", make(chan int))
	require.Error(t, err)
	got, ok := m.Get("capital")
	require.True(t, ok)
	assert.Equal(t, 100000, got)

	err = m.Set("broken", func() {})
	require.Error(t, err)
	assert.False(t, m.Has("broken"))

	// backend record still has the last good state
	reloaded := NewMap("settings", backend)
	assert.Equal(t, 100000.0, reloaded.GetDefault("capital", nil))
}

func TestMap_BackendErrorRollsBack(t *testing.T) {
	m := NewMap("positions", &failingBackend{})

	err := m.Set("AAPL", 1)
	require.Error(t, err)
	assert.False(t, m.Has("AAPL"))

	err = m.Update(map[string]any{"AAPL": 1, "MSFT": 2})
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestMap_Update(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingBackend{Backend: backend}

	m := NewMap("watchlist", counting)
	require.NoError(t, m.Update(map[string]any{"SPY": "Index", "QQQ": "Index", "AAPL": "Technology"}))
	assert.Equal(t, 1, counting.saves, "bulk update is a single save")
	assert.Equal(t, []string{"AAPL", "QQQ", "SPY"}, m.Keys())

	reloaded := NewMap("watchlist", backend)
	assert.Equal(t, 3, reloaded.Len())
}

func TestMap_Clear(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			m := NewMap("scratch", backend)
			require.NoError(t, m.Set("a", 1))
			require.NoError(t, m.Clear())

			reloaded := NewMap("scratch", backend)
			assert.Equal(t, 0, reloaded.Len())
		})
	}
}

func TestMap_CorruptRecordStartsEmpty(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, backend.Save("positions", []byte("not json at all")))

	m := NewMap("positions", backend)
	assert.Equal(t, 0, m.Len())
}

func TestMap_ItemsIsSnapshot(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := NewMap("positions", backend)
	require.NoError(t, m.Set("AAPL", 1))

	items := m.Items()
	items["MSFT"] = 2
	assert.False(t, m.Has("MSFT"))
}
