package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	cp "github.com/otiai10/copy"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

const (
	unlockedFile = "unlocked_items.json"
	rolledFile   = "rolled_items.json"
	maxBackups   = 10
)

// Manager holds the unlocked and rolled item sets for one profile. Reads are
// lock-free against in-memory sets; every mutation schedules an asynchronous
// full-set write through a single writer worker so two file writes of the
// same target never interleave.
type Manager struct {
	profile string
	dir     string
	logger  *slog.Logger

	unlocked sync.Map // item.ID -> struct{}
	rolled   sync.Map // item.ID -> struct{}

	unlockedStore *store
	rolledStore   *store

	dirtyUnlocked atomic.Bool
	dirtyRolled   atomic.Bool

	// writeMu serializes file writes between the worker and Flush.
	writeMu sync.Mutex

	wake     chan struct{}
	stopc    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates the ledger pair for a profile stored under dir. The
// writer worker runs until Close.
func NewManager(profile, dir string, logger *slog.Logger) *Manager {
	m := &Manager{
		profile:       profile,
		dir:           dir,
		logger:        logger,
		unlockedStore: newStore(filepath.Join(dir, unlockedFile), maxBackups, logger),
		rolledStore:   newStore(filepath.Join(dir, rolledFile), maxBackups, logger),
		wake:          make(chan struct{}, 1),
		stopc:         make(chan struct{}),
		done:          make(chan struct{}),
	}
	go m.writer()
	return m
}

// Profile returns the owning profile name.
func (m *Manager) Profile() string {
	return m.profile
}

// Load synchronously reads both durable sets into memory. A missing file is
// a fresh ledger and a write is scheduled immediately so the file exists
// after first activation. A corrupt or unreadable file is logged and treated
// as empty.
func (m *Manager) Load() error {
	for _, target := range []struct {
		store *store
		set   *sync.Map
		dirty *atomic.Bool
	}{
		{m.unlockedStore, &m.unlocked, &m.dirtyUnlocked},
		{m.rolledStore, &m.rolled, &m.dirtyRolled},
	} {
		ids, err := target.store.load()
		switch {
		case err == nil:
			for _, id := range ids {
				target.set.Store(id, struct{}{})
			}
		case errors.Is(err, fs.ErrNotExist):
			target.dirty.Store(true)
		default:
			m.logger.Error("Ledger read failed, starting empty",
				"profile", m.profile, "file", target.store.path, "error", err)
		}
	}

	if m.dirtyUnlocked.Load() || m.dirtyRolled.Load() {
		m.scheduleWrite()
	}
	return nil
}

// IsUnlocked reports whether the item may be freely used. Never blocks on I/O.
func (m *Manager) IsUnlocked(id item.ID) bool {
	_, ok := m.unlocked.Load(id)
	return ok
}

// IsRolled reports whether the item has already triggered a roll.
func (m *Manager) IsRolled(id item.ID) bool {
	_, ok := m.rolled.Load(id)
	return ok
}

// Unlock adds the item to the unlocked set. Returns true when the item was
// newly added, in which case a durable write is scheduled; repeat calls are
// no-ops.
func (m *Manager) Unlock(id item.ID) bool {
	if _, loaded := m.unlocked.LoadOrStore(id, struct{}{}); loaded {
		return false
	}
	m.dirtyUnlocked.Store(true)
	m.scheduleWrite()
	return true
}

// MarkRolled adds the item to the rolled set, same contract as Unlock.
func (m *Manager) MarkRolled(id item.ID) bool {
	if _, loaded := m.rolled.LoadOrStore(id, struct{}{}); loaded {
		return false
	}
	m.dirtyRolled.Store(true)
	m.scheduleWrite()
	return true
}

// UnlockedIDs returns a snapshot of the unlocked set.
func (m *Manager) UnlockedIDs() []item.ID {
	return snapshot(&m.unlocked)
}

// RolledIDs returns a snapshot of the rolled set.
func (m *Manager) RolledIDs() []item.ID {
	return snapshot(&m.rolled)
}

// Counts returns the sizes of both sets.
func (m *Manager) Counts() (unlocked, rolled int) {
	m.unlocked.Range(func(_, _ any) bool { unlocked++; return true })
	m.rolled.Range(func(_, _ any) bool { rolled++; return true })
	return unlocked, rolled
}

// Reset snapshots the profile directory aside, clears both sets and writes
// fresh empty files. The snapshot keeps a recoverable copy of the wiped
// state next to the profile directory.
func (m *Manager) Reset() error {
	snapshotDir := filepath.Join(filepath.Dir(m.dir),
		fmt.Sprintf("%s.reset.%s", m.profile, time.Now().Format(backupTimeFormat)))
	if err := cp.Copy(m.dir, snapshotDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("snapshotting profile %s before reset: %w", m.profile, err)
	}

	m.unlocked.Range(func(k, _ any) bool { m.unlocked.Delete(k); return true })
	m.rolled.Range(func(k, _ any) bool { m.rolled.Delete(k); return true })
	m.dirtyUnlocked.Store(true)
	m.dirtyRolled.Store(true)
	m.Flush()

	m.logger.Info("Profile ledger reset", "profile", m.profile, "snapshot", snapshotDir)
	return nil
}

// Flush synchronously writes any dirty set. Used on shutdown and by tests;
// normal mutations rely on the writer worker.
func (m *Manager) Flush() {
	m.writeDirty()
}

// Close stops the writer worker after flushing pending state.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stopc)
		<-m.done
		m.writeDirty()
	})
}

func (m *Manager) scheduleWrite() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) writer() {
	defer close(m.done)
	for {
		select {
		case <-m.stopc:
			return
		case <-m.wake:
			m.writeDirty()
		}
	}
}

// writeDirty persists whichever sets changed since the last write. A failed
// write is logged and the set stays dirty only in the sense that the next
// mutation schedules a new attempt.
func (m *Manager) writeDirty() {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.dirtyUnlocked.Swap(false) {
		if err := m.unlockedStore.save(snapshot(&m.unlocked)); err != nil {
			m.logger.Error("Failed to save unlocked items",
				"profile", m.profile, "error", err)
		}
	}
	if m.dirtyRolled.Swap(false) {
		if err := m.rolledStore.save(snapshot(&m.rolled)); err != nil {
			m.logger.Error("Failed to save rolled items",
				"profile", m.profile, "error", err)
		}
	}
}

func snapshot(set *sync.Map) []item.ID {
	ids := make([]item.ID, 0, 64)
	set.Range(func(k, _ any) bool {
		ids = append(ids, k.(item.ID))
		return true
	})
	return ids
}
