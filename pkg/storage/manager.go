package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Manager handles file storage operations for a single target directory.
// Files are named "<post-id>.<ext>".
type Manager struct {
	outputDir  string
	downloaded map[int]string // post id -> path
	mu         sync.RWMutex
}

// NewManager creates a new storage manager, creating the output directory
// if needed and scanning it for already downloaded posts.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		downloaded: make(map[int]string),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles scans the output directory for already downloaded posts
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		m.downloaded[id] = filepath.Join(m.outputDir, name)
	}

	return nil
}

// PathFor returns the deterministic target path for a post.
func (m *Manager) PathFor(postID int, ext string) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("%d.%s", postID, ext))
}

// IsDownloaded checks if a post has already been downloaded
func (m *Manager) IsDownloaded(postID int) bool {
	m.mu.RLock()
	path, ok := m.downloaded[postID]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	// Double-check file existence
	if _, err := os.Lstat(path); err != nil {
		m.mu.Lock()
		delete(m.downloaded, postID)
		m.mu.Unlock()
		return false
	}

	return true
}

// IsRegular reports whether the stored entry for a post is a regular
// file. A symlink left by an earlier space-saving pass is not.
func (m *Manager) IsRegular(postID int, ext string) bool {
	info, err := os.Lstat(m.PathFor(postID, ext))
	return err == nil && info.Mode().IsRegular()
}

// Save writes a post payload atomically: the data goes to a temporary
// name first and is renamed into place, so a crash never leaves a
// partial file under its final name.
func (m *Manager) Save(r io.Reader, postID int, ext string) (string, error) {
	filename := m.PathFor(postID, ext)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write post data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.downloaded[postID] = filename
	m.mu.Unlock()

	return filename, nil
}

// Link creates a symlink for a post pointing at the canonical file,
// relative to the link's directory.
func (m *Manager) Link(postID int, ext, canonical string) (string, error) {
	filename := m.PathFor(postID, ext)

	if _, err := os.Lstat(filename); err == nil {
		// Target name already occupied; leave whatever is there alone.
		return filename, nil
	}

	rel, err := filepath.Rel(m.outputDir, canonical)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}

	if err := os.Symlink(rel, filename); err != nil {
		return "", fmt.Errorf("failed to create symlink: %w", err)
	}

	m.mu.Lock()
	m.downloaded[postID] = filename
	m.mu.Unlock()

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of downloaded posts
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}
