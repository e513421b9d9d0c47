package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Append("first", 200))
	require.NoError(t, store.Append("second", 200))
	require.NoError(t, store.Append("third", 200))

	recent, err := store.Recent(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second"}, recent, "newest first")

	all, err := store.Recent(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAppendTrimsToCapacity(t *testing.T) {
	store := openTestStore(t)

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Append(text, 3))
	}

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := store.Recent(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c"}, recent, "oldest rows trimmed")
}

func TestAppendRejectsEmptyText(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Append("", 10))
}

func TestNextRotationCycles(t *testing.T) {
	store := openTestStore(t)

	// First advance lands on 0, then each index appears exactly once per
	// full cycle.
	var seen []int
	for i := 0; i < 8; i++ {
		idx, err := store.NextRotation("angle", 4)
		require.NoError(t, err)
		seen = append(seen, idx)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3}, seen)

	// Independent counters do not interfere.
	idx, err := store.NextRotation("mode", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	rotations, err := store.Rotations()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"angle": 3, "mode": 0}, rotations)
}

func TestStateSlots(t *testing.T) {
	store := openTestStore(t)

	value, err := store.GetState("last_success:morning")
	require.NoError(t, err)
	assert.Empty(t, value, "unwritten slot reads as empty")

	require.NoError(t, store.SetState("last_success:morning", "2026-08-28"))
	require.NoError(t, store.SetState("last_success:morning", "2026-08-29"))

	value, err = store.GetState("last_success:morning")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29", value, "overwrite wins")
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append("persisted", 10))
	require.NoError(t, store.SetState("k", "v"))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	recent, err := store.Recent(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"persisted"}, recent)

	value, err := store.GetState("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestOpenSidelinesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, not even close"), 0o644))

	store, err := Open(path)
	require.NoError(t, err, "corrupt state must degrade to empty, not fail")
	defer store.Close()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, statErr := os.Stat(path + ".corrupt")
	assert.NoError(t, statErr, "unreadable file is kept aside for inspection")
}
