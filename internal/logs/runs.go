package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoRuns reports an empty log directory.
var ErrNoRuns = errors.New("no run logs found")

const (
	runPrefix = "imgsauce-"
	runSuffix = ".log"
)

// Run is one run log on disk.
type Run struct {
	ID      string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListRuns returns the run logs in dir, newest first.
func ListRuns(dir string) ([]Run, error) {
	matches, err := filepath.Glob(filepath.Join(dir, runPrefix+"*"+runSuffix))
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	runs := make([]Run, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		name := filepath.Base(path)
		runs = append(runs, Run{
			ID:      strings.TrimSuffix(strings.TrimPrefix(name, runPrefix), runSuffix),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].ModTime.Equal(runs[j].ModTime) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// FindRun returns the run whose id starts with prefix, or the newest run
// when prefix is empty.
func FindRun(dir, prefix string) (Run, error) {
	runs, err := ListRuns(dir)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w in %s", ErrNoRuns, dir)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return runs[0], nil
	}
	var found []Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("no run log matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id %q is ambiguous (%d matches)", prefix, len(found))
	}
}
