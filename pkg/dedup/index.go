package dedup

import "sync"

// Index maps content fingerprints to the canonical file path owning that
// content. All operations are safe for concurrent use. Concurrent inserts
// for the same fingerprint resolve by first-writer-wins: the first caller
// becomes canonical and later callers receive the existing path back.
type Index struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]string),
	}
}

// Lookup returns the canonical path for a fingerprint, if one exists.
func (idx *Index) Lookup(fingerprint string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	path, ok := idx.entries[fingerprint]
	return path, ok
}

// Insert records path as canonical for fingerprint unless an entry
// already exists. It returns the previous canonical path and whether one
// was present; an existing entry is never overwritten.
func (idx *Index) Insert(fingerprint, path string) (string, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.entries[fingerprint]; ok {
		return existing, true
	}
	idx.entries[fingerprint] = path
	return "", false
}

// Remove withdraws a claim on a fingerprint, but only when path is the
// current canonical entry. A writer that claimed a fingerprint and then
// failed to produce the file uses this to release the claim; it can
// never evict another writer's entry.
func (idx *Index) Remove(fingerprint, path string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.entries[fingerprint]; !ok || existing != path {
		return false
	}
	delete(idx.entries, fingerprint)
	return true
}

// Len returns the number of distinct fingerprints in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
