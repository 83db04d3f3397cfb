package session

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

const maxHistoryEntries = 100

// HistoryEntry records one committed roll for the profile's history file.
type HistoryEntry struct {
	Trigger      item.ID   `json:"trigger,omitempty"`
	TriggerName  string    `json:"triggerName,omitempty"`
	Unlocked     item.ID   `json:"unlocked"`
	UnlockedName string    `json:"unlockedName"`
	Manual       bool      `json:"manual,omitempty"`
	At           time.Time `json:"at"`
}

// RollHistory is the persisted roll log, newest first.
type RollHistory struct {
	Entries []HistoryEntry `json:"entries"`
}

func historyPath(profileDir string) string {
	return filepath.Join(profileDir, "roll_history.json")
}

// appendHistory prepends an entry and rewrites the history file, pruned to
// the most recent entries. Best effort: failures are logged, never fatal.
func appendHistory(profileDir string, entry HistoryEntry, logger *slog.Logger) {
	path := historyPath(profileDir)

	var history RollHistory
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &history)
	}

	history.Entries = append([]HistoryEntry{entry}, history.Entries...)
	if len(history.Entries) > maxHistoryEntries {
		history.Entries = history.Entries[:maxHistoryEntries]
	}

	if err := os.MkdirAll(profileDir, 0755); err != nil {
		logger.Error("Failed to create profile directory for history", "error", err)
		return
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal roll history", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error("Failed to save roll history", "error", err)
	}
}

// loadHistory reads the persisted roll log, returning an empty log on any
// failure.
func loadHistory(profileDir string) *RollHistory {
	data, err := os.ReadFile(historyPath(profileDir))
	if err != nil {
		return &RollHistory{Entries: []HistoryEntry{}}
	}
	var history RollHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return &RollHistory{Entries: []HistoryEntry{}}
	}
	return &history
}
