package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestScratchpadWriteRead(t *testing.T) {
	pad := NewScratchpad(nil)

	require.NoError(t, pad.Write("step_1", "Revenue was $2.5 million"))
	require.NoError(t, pad.Write("step_2", "15 engineers were hired"))

	value, ok := pad.Read("step_1")
	assert.True(t, ok)
	assert.Equal(t, "Revenue was $2.5 million", value)

	_, ok = pad.Read("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, pad.Len())
}

func TestScratchpadHistory(t *testing.T) {
	pad := NewScratchpad(nil)

	require.NoError(t, pad.Write("k", "v"))
	pad.Read("k")
	pad.Read("missing") // misses are not recorded
	require.NoError(t, pad.Clear())

	history := pad.History()
	require.Len(t, history, 3)
	assert.Equal(t, "WRITE: k = v", history[0])
	assert.Equal(t, "READ: k = v", history[1])
	assert.Equal(t, "CLEAR: All memory cleared", history[2])
}

func TestScratchpadSummary(t *testing.T) {
	pad := NewScratchpad(nil)
	assert.Equal(t, "Scratchpad is empty.", pad.Summary())

	require.NoError(t, pad.Write("b_key", "second"))
	require.NoError(t, pad.Write("a_key", "first"))

	assert.Equal(t, "Scratchpad Memory:\n  - a_key: first\n  - b_key: second", pad.Summary())
}

func TestScratchpadClear(t *testing.T) {
	pad := NewScratchpad(nil)
	require.NoError(t, pad.Write("k", "v"))
	require.NoError(t, pad.Clear())

	assert.Equal(t, 0, pad.Len())
	assert.Equal(t, "Scratchpad is empty.", pad.Summary())
}

func TestScratchpadOverwrite(t *testing.T) {
	pad := NewScratchpad(nil)
	require.NoError(t, pad.Write("k", "old"))
	require.NoError(t, pad.Write("k", "new"))

	value, ok := pad.Read("k")
	assert.True(t, ok)
	assert.Equal(t, "new", value)
	assert.Equal(t, 1, pad.Len())
}

func TestMapStoreGetMissing(t *testing.T) {
	store := NewMapStore()
	_, err := store.Get("missing")
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratchpad.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("k1", "v1"))
	require.NoError(t, store.Put("k2", "v2"))
	require.NoError(t, store.Put("k1", "v1-updated")) // upsert

	value, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "v1-updated", value)

	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "v1-updated", "k2": "v2"}, all)

	_, err = store.Get("missing")
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))

	require.NoError(t, store.Clear())
	all, err = store.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestScratchpadOverSQLite(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)

	pad := NewScratchpad(store)
	defer pad.Close()

	require.NoError(t, pad.Write("step_1", "launch date is March 15th"))
	value, ok := pad.Read("step_1")
	assert.True(t, ok)
	assert.Equal(t, "launch date is March 15th", value)
	assert.Contains(t, pad.Summary(), "step_1: launch date is March 15th")
}
