package dedup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hmiku8338/e621-dl/pkg/logger"
)

// ReplaceError records a single file that could not be replaced.
type ReplaceError struct {
	Path string
	Err  error
}

func (e *ReplaceError) Error() string {
	return fmt.Sprintf("failed to replace %s: %v", e.Path, e.Err)
}

// ReplaceStats summarizes a symlink replacement pass.
type ReplaceStats struct {
	Replaced   int
	AlreadyOK  int
	Failed     int
	BytesSaved int64
}

// ReplaceWithSymlinks replaces every non-canonical duplicate with a
// relative symlink to its canonical file. Paths that are already links to
// the canonical file are left alone. The canonical file itself is never
// removed. Per-file failures are reported and do not stop the rest of the
// batch.
func ReplaceWithSymlinks(index *Index, duplicates map[string][]string, log logger.Logger) (ReplaceStats, []ReplaceError) {
	if log == nil {
		log = logger.GetLogger()
	}

	var stats ReplaceStats
	var failures []ReplaceError

	fail := func(path string, err error) {
		stats.Failed++
		failures = append(failures, ReplaceError{Path: path, Err: err})
		log.WarnWithFields("failed to replace duplicate", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	for fingerprint, paths := range duplicates {
		canonical, ok := index.Lookup(fingerprint)
		if !ok {
			// Duplicate sets always come from the index; a missing entry
			// means the caller mixed indexes.
			for _, path := range paths {
				fail(path, fmt.Errorf("no canonical file for fingerprint %s", fingerprint))
			}
			continue
		}

		for _, path := range paths {
			if path == canonical {
				continue
			}

			replaced, err := replaceOne(path, canonical)
			if err != nil {
				fail(path, err)
				continue
			}
			if !replaced {
				stats.AlreadyOK++
				continue
			}

			if info, err := os.Lstat(canonical); err == nil {
				stats.BytesSaved += info.Size()
			}
			stats.Replaced++
			log.DebugWithFields("replaced duplicate with symlink", map[string]interface{}{
				"path":      path,
				"canonical": canonical,
			})
		}
	}

	return stats, failures
}

// replaceOne swaps a single duplicate for a relative symlink to
// canonical. It reports false when the path already links there.
func replaceOne(path, canonical string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}

	// Already a link pointing at the canonical file: nothing to do.
	if info.Mode()&os.ModeSymlink != 0 {
		if target, err := os.Readlink(path); err == nil {
			resolved := target
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(filepath.Dir(path), resolved)
			}
			if sameFile(resolved, canonical) {
				return false, nil
			}
		}
	}

	rel, err := filepath.Rel(filepath.Dir(path), canonical)
	if err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		return false, err
	}
	if err := os.Symlink(rel, path); err != nil {
		return false, err
	}

	return true, nil
}

// sameFile reports whether two paths refer to the same file.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
