package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var logFile *os.File

// NewLogger builds the process logger writing to stdout and a timestamped
// file under logDir. debug lowers the level to slog.LevelDebug.
func NewLogger(debug bool, logDir string) (*slog.Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("chanceman-%s.log", time.Now().Format("2006-01-02-15-04-05")))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating log file %s: %w", path, err)
	}
	logFile = f

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return logger, nil
}

// FlushLog syncs the log file to disk.
func FlushLog() {
	if logFile != nil {
		_ = logFile.Sync()
	}
}

// FlushAndClose syncs and closes the log file.
func FlushAndClose() {
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}
