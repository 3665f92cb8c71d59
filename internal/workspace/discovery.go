package workspace

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RecencyWindow is how far back discovery looks. Two days covers a weekend
// gap while skipping the bulk of a long workspace history.
const RecencyWindow = 48 * time.Hour

// StateDB is one discovered workspace database.
type StateDB struct {
	Path    string
	ModTime time.Time
}

// Discover walks the candidate directories and returns every state.vscdb
// modified within the recency window, newest first. Unreadable directories
// are logged and skipped; discovery never fails.
func Discover(dirs []string, now time.Time, tr *Trace) []StateDB {
	cutoff := now.Add(-RecencyWindow)
	var found []StateDB

	for _, dir := range dirs {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		if tr != nil {
			tr.ScannedDirs = append(tr.ScannedDirs, dir)
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable path during discovery", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || d.Name() != "state.vscdb" {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				slog.Warn("skipping unstatable file during discovery", "path", path, "error", err)
				return nil
			}
			if info.ModTime().Before(cutoff) {
				if tr != nil {
					tr.SkippedByMtime++
				}
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			found = append(found, StateDB{Path: abs, ModTime: info.ModTime()})
			return nil
		})
		if err != nil {
			slog.Warn("workspace scan aborted", "dir", dir, "error", err)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].ModTime.After(found[j].ModTime)
	})

	if tr != nil {
		for _, f := range found {
			tr.FoundDBs = append(tr.FoundDBs, f.Path)
		}
	}
	return found
}
