// Package archive locates previous snapshots of a trial for the archive
// merge.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"trialinv/internal/output"
)

// Snapshot is a previous output file.
type Snapshot struct {
	Path  string
	Taken time.Time
}

// Latest returns the newest snapshot of slug in dir. found is false when dir
// does not exist or holds no snapshot of slug. Snapshots with the same
// timestamp are ordered by file name.
func Latest(dir, slug string) (snap Snapshot, found bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("archive: read directory %s: %w", dir, err)
	}

	var bestName string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		taken, ok := output.ParseName(slug, e.Name())
		if !ok {
			continue
		}
		if !found || taken.After(snap.Taken) || (taken.Equal(snap.Taken) && e.Name() > bestName) {
			snap = Snapshot{Path: filepath.Join(dir, e.Name()), Taken: taken}
			bestName = e.Name()
			found = true
		}
	}
	return snap, found, nil
}
