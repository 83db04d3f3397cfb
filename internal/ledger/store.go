package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

// backupTimeFormat orders backup filenames lexicographically by timestamp.
const backupTimeFormat = "20060102-150405.000"

// store persists one item-id set as a JSON file with rotated backups.
// Callers must serialize save calls; the Manager's writer worker does.
type store struct {
	path      string
	backupDir string
	keep      int
	logger    *slog.Logger
}

func newStore(path string, keep int, logger *slog.Logger) *store {
	return &store{
		path:      path,
		backupDir: filepath.Join(filepath.Dir(path), "backups"),
		keep:      keep,
		logger:    logger,
	}
}

// load reads the full set from disk. A missing file surfaces as fs.ErrNotExist
// so the caller can distinguish "fresh profile" from a corrupt read.
func (s *store) load() ([]item.ID, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var ids []item.ID
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return ids, nil
}

// save writes the full set: rotate the current file into the backup
// directory, write a temporary sibling, then atomically rename it over the
// target. The non-atomic remove-and-rename fallback is taken only when the
// rename itself reports non-support or an access failure.
func (s *store) save(ids []item.ID) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		s.rotateBackup()
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		if !errors.Is(err, fs.ErrPermission) && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("replacing %s: %w", s.path, err)
		}
		// Platforms without atomic replace refuse to rename over an
		// existing file.
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("replacing %s: %w", s.path, rmErr)
		}
		if err := os.Rename(tmp, s.path); err != nil {
			return fmt.Errorf("replacing %s: %w", s.path, err)
		}
	}
	return nil
}

// rotateBackup moves the current file into the backup directory with a
// timestamp suffix and prunes old backups. Rotation failures are logged and
// skipped; the new write still proceeds.
func (s *store) rotateBackup() {
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		s.logger.Warn("Could not create backup directory", "dir", s.backupDir, "error", err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(s.path), ".json")
	name := fmt.Sprintf("%s.%s.json", base, time.Now().Format(backupTimeFormat))
	if err := os.Rename(s.path, filepath.Join(s.backupDir, name)); err != nil {
		s.logger.Warn("Could not rotate ledger backup", "file", s.path, "error", err)
		return
	}

	s.pruneBackups(base + ".")
}

// pruneBackups keeps the most recent backups for this file, ordered by the
// timestamp embedded in the filename, newest first.
func (s *store) pruneBackups(prefix string) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		s.logger.Warn("Could not read backup directory", "dir", s.backupDir, "error", err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}

	if len(names) <= s.keep {
		return
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names[s.keep:] {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			s.logger.Warn("Could not remove old backup", "file", name, "error", err)
		}
	}
}
