package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Hmiku8338/e621-dl/pkg/hash"
	"github.com/Hmiku8338/e621-dl/pkg/logger"
)

// ScanEntry is one (path, fingerprint) pair produced by a directory scan.
type ScanEntry struct {
	Path        string
	Fingerprint string
}

// Scan walks the directory tree rooted at root and fingerprints every
// regular file. Symlinks are left alone. The walk uses an explicit work
// queue, so arbitrarily deep trees are fine. Hashing runs on up to
// workers goroutines; files that cannot be read are logged and skipped.
// Entries come back in lexicographic path order so canonical selection
// is reproducible across runs.
func Scan(ctx context.Context, root string, workers int, log logger.Logger) ([]ScanEntry, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if workers <= 0 {
		workers = 1
	}

	paths, err := collectFiles(root)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	log.DebugWithFields("scanning directory tree", map[string]interface{}{
		"root":    root,
		"files":   len(paths),
		"workers": workers,
	})

	entries := make([]ScanEntry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fp, err := hash.File(path)
			if err != nil {
				// A single unreadable file does not abort the scan.
				log.WarnWithFields("skipping unreadable file", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				return nil
			}
			entries[i] = ScanEntry{Path: path, Fingerprint: fp}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	// Drop slots of skipped files, keeping lexicographic order.
	result := entries[:0]
	for _, e := range entries {
		if e.Fingerprint != "" {
			result = append(result, e)
		}
	}

	return result, nil
}

// collectFiles gathers all regular file paths under root without
// recursion, using an explicit queue of directories.
func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	queue := []string{root}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		dirents, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
		}

		for _, d := range dirents {
			path := filepath.Join(dir, d.Name())
			if d.IsDir() {
				queue = append(queue, path)
				continue
			}
			if d.Type()&os.ModeSymlink != 0 || !d.Type().IsRegular() {
				continue
			}
			files = append(files, path)
		}
	}

	return files, nil
}

// BuildIndex populates an Index from scan entries and returns the sets of
// non-canonical duplicate paths keyed by fingerprint. Entries must be in
// the order Scan produced them: the first path seen for a fingerprint
// becomes canonical.
func BuildIndex(entries []ScanEntry) (*Index, map[string][]string) {
	index := NewIndex()
	duplicates := make(map[string][]string)

	for _, e := range entries {
		if _, existed := index.Insert(e.Fingerprint, e.Path); existed {
			duplicates[e.Fingerprint] = append(duplicates[e.Fingerprint], e.Path)
		}
	}

	return index, duplicates
}
