package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_AppendPersists(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			journal := NewList("journal", backend)
			require.NoError(t, journal.Append("Bought AAPL calls"))
			require.NoError(t, journal.Append("Closed for +12%"))

			reloaded := NewList("journal", backend)
			assert.Equal(t, 2, reloaded.Len())
			first, err := reloaded.At(0)
			require.NoError(t, err)
			assert.Equal(t, "Bought AAPL calls", first)
			last, err := reloaded.At(reloaded.Len() - 1)
			require.NoError(t, err)
			assert.Equal(t, "Closed for +12%", last)
		})
	}
}

func TestList_EmptyDefault(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			l := NewList("never-saved", backend)
			assert.Equal(t, 0, l.Len())
			assert.Empty(t, l.Items())
		})
	}
}

func TestList_RemoveAt(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	l := NewList("journal", backend)
	require.NoError(t, l.Append("first"))
	require.NoError(t, l.Append("second"))
	require.NoError(t, l.Append("third"))

	require.NoError(t, l.RemoveAt(1))

	reloaded := NewList("journal", backend)
	assert.Equal(t, []any{"first", "third"}, reloaded.Items())
}

func TestList_RemoveAtOutOfRange(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	counting := &countingBackend{Backend: backend}

	l := NewList("journal", counting)
	require.NoError(t, l.Append("only"))
	saved := counting.saves

	err = l.RemoveAt(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	err = l.RemoveAt(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, saved, counting.saves, "out-of-range removal must not save")
	assert.Equal(t, 1, l.Len())
}

func TestList_AtOutOfRange(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	l := NewList("journal", backend)
	_, err = l.At(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestList_RemoveByValue(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			l := NewList("watch", backend)
			require.NoError(t, l.Append("SPY"))
			require.NoError(t, l.Append("QQQ"))
			require.NoError(t, l.Append("SPY"))

			removed, err := l.Remove("SPY")
			require.NoError(t, err)
			assert.True(t, removed, "first match removed")

			reloaded := NewList("watch", backend)
			assert.Equal(t, []any{"QQQ", "SPY"}, reloaded.Items())

			removed, err = l.Remove("TSLA")
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestList_RemoveByValueStructured(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	l := NewList("journal", backend)
	require.NoError(t, l.Append(map[string]any{"symbol": "AAPL", "pnl": 12.5}))

	// after a reload numbers come back as float64, equality is structural
	reloaded := NewList("journal", backend)
	removed, err := reloaded.Remove(map[string]any{"symbol": "AAPL", "pnl": 12.5})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, reloaded.Len())
}

func TestList_BackendErrorRollsBack(t *testing.T) {
	l := NewList("journal", &failingBackend{})

	err := l.Append("entry")
	require.Error(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestList_SerializationErrorLeavesStateUnchanged(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	l := NewList("journal", backend)
	require.NoError(t, l.Append("good"))

	err = l.Append(make(chan int))
	require.Error(t, err)
	assert.Equal(t, 1, l.Len())

	reloaded := NewList("journal", backend)
	assert.Equal(t, []any{"good"}, reloaded.Items())
}

func TestList_CorruptRecordStartsEmpty(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, backend.Save("journal", []byte(`{"not":"a list"}`)))

	l := NewList("journal", backend)
	assert.Equal(t, 0, l.Len())
}

func TestList_Clear(t *testing.T) {
	backend, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	l := NewList("journal", backend)
	require.NoError(t, l.Append("entry"))
	require.NoError(t, l.Clear())

	reloaded := NewList("journal", backend)
	assert.Equal(t, 0, reloaded.Len())
}
