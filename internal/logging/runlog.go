package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const runLogPattern = "imgsauce-*.log"

// RunLog is the per-run JSON log file teed alongside console output.
type RunLog struct {
	Path    string
	Handler slog.Handler
	file    *os.File
}

// OpenRunLog creates <dir>/imgsauce-<runID>.log and returns a handler that
// writes JSON records at debug level into it. Records carry run_id when the
// logger was derived from a context holding one.
func OpenRunLog(dir, runID string) (*RunLog, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("run log: directory is empty")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run log: run id is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("run log: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, "imgsauce-"+runID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("run log: open %s: %w", path, err)
	}
	return &RunLog{Path: path, Handler: newJSONHandler(file, slog.LevelDebug, false), file: file}, nil
}

// Attach tees logger output into the run log.
func (r *RunLog) Attach(logger *slog.Logger) *slog.Logger {
	if r == nil {
		return logger
	}
	return TeeLogger(logger, r.Handler)
}

// Close flushes and closes the underlying file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// PruneRunLogs removes run logs in dir older than retentionDays. The current
// run's log is never removed; zero days disables pruning.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, current string) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	stale, err := staleRunLogs(dir, time.Now().AddDate(0, 0, -retentionDays), current)
	if err != nil {
		logger.Debug("run log listing failed", Error(err))
		return
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			WarnWithContext(logger, "run log prune failed; file remains", "run_log_prune_failed",
				String(FieldPath, path),
				Error(err),
				String(FieldErrorHint, "check log_dir ownership"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		logger.Debug("run log pruned",
			String(FieldPath, path),
			String(FieldEventType, "run_log_pruned"),
		)
	}
}

func staleRunLogs(dir string, cutoff time.Time, current string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return nil, err
	}
	keep := filepath.Clean(current)
	var stale []string
	for _, path := range matches {
		if filepath.Clean(path) == keep {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		stale = append(stale, path)
	}
	return stale, nil
}
