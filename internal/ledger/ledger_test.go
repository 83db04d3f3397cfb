package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m := NewManager("test", dir, discardLogger())
	t.Cleanup(m.Close)
	return m
}

func TestUnlockIsIdempotent(t *testing.T) {
	m := newTestManager(t, filepath.Join(t.TempDir(), "test"))
	require.NoError(t, m.Load())

	assert.True(t, m.Unlock(1511))
	assert.False(t, m.Unlock(1511))
	assert.True(t, m.IsUnlocked(1511))
	assert.False(t, m.IsUnlocked(453))

	assert.True(t, m.MarkRolled(1511))
	assert.False(t, m.MarkRolled(1511))
	assert.True(t, m.IsRolled(1511))

	unlocked, rolled := m.Counts()
	assert.Equal(t, 1, unlocked)
	assert.Equal(t, 1, rolled)
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test")

	m1 := NewManager("test", dir, discardLogger())
	require.NoError(t, m1.Load())
	m1.Unlock(1511)
	m1.Unlock(453)
	m1.MarkRolled(1511)
	m1.Close()

	m2 := newTestManager(t, dir)
	require.NoError(t, m2.Load())
	assert.True(t, m2.IsUnlocked(1511))
	assert.True(t, m2.IsUnlocked(453))
	assert.True(t, m2.IsRolled(1511))
	assert.False(t, m2.IsRolled(453))
}

func TestLoadCreatesMissingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test")
	m := newTestManager(t, dir)

	require.NoError(t, m.Load())
	m.Flush()

	_, err := os.Stat(filepath.Join(dir, unlockedFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, rolledFile))
	assert.NoError(t, err)
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, unlockedFile), []byte("{broken"), 0644))

	m := newTestManager(t, dir)
	require.NoError(t, m.Load())

	unlocked, _ := m.Counts()
	assert.Zero(t, unlocked)
}

func TestResetClearsAndSnapshots(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "test")

	m := newTestManager(t, dir)
	require.NoError(t, m.Load())
	m.Unlock(1511)
	m.MarkRolled(1511)
	m.Flush()

	require.NoError(t, m.Reset())

	unlocked, rolled := m.Counts()
	assert.Zero(t, unlocked)
	assert.Zero(t, rolled)
	assert.False(t, m.IsUnlocked(1511))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	found := false
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "test.reset.") {
			found = true
		}
	}
	assert.True(t, found, "expected a reset snapshot directory")

	// The wiped state is durable immediately.
	ids, err := m.unlockedStore.load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	m := newTestManager(t, filepath.Join(t.TempDir(), "test"))
	require.NoError(t, m.Load())

	m.Unlock(1)
	ids := m.UnlockedIDs()
	m.Unlock(2)
	assert.Len(t, ids, 1)
	assert.Contains(t, m.UnlockedIDs(), item.ID(2))
}
