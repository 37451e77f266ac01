package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// ScanArtifacts walks dir recursively and returns every .json file whose
// modification time falls within [start, end]. Zero start and end disable
// the time filter. Unreadable directory entries are skipped.
func ScanArtifacts(dir string, start, end time.Time) ([]string, error) {
	var paths []string

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}

		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		if !start.IsZero() || !end.IsZero() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil //nolint:nilerr
			}

			mtime := info.ModTime()
			if mtime.Before(start) || mtime.After(end) {
				return nil
			}
		}

		paths = append(paths, path)

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return paths, nil
}
