package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Hmiku8338/e621-dl/pkg/logger"
)

// scanAndReplace runs a full scan-index-replace cycle over root.
func scanAndReplace(t *testing.T, root string) (ReplaceStats, []ReplaceError) {
	t.Helper()
	entries, err := Scan(context.Background(), root, 2, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	index, duplicates := BuildIndex(entries)
	return ReplaceWithSymlinks(index, duplicates, logger.NewNopLogger())
}

func TestReplaceWithSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "shared-content")
	writeFile(t, filepath.Join(root, "b.png"), "shared-content")
	writeFile(t, filepath.Join(root, "unique.png"), "other-content")

	stats, failures := scanAndReplace(t, root)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	if stats.Replaced != 1 {
		t.Errorf("Expected 1 replacement, got %d", stats.Replaced)
	}
	if stats.BytesSaved != int64(len("shared-content")) {
		t.Errorf("Expected %d bytes saved, got %d", len("shared-content"), stats.BytesSaved)
	}

	// a.png sorts first, so it stays a regular file
	info, err := os.Lstat(filepath.Join(root, "a.png"))
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Error("Expected a.png to remain a regular file")
	}

	// b.png becomes a relative symlink to a.png
	linkInfo, err := os.Lstat(filepath.Join(root, "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	if linkInfo.Mode()&os.ModeSymlink == 0 {
		t.Fatal("Expected b.png to be a symlink")
	}
	target, err := os.Readlink(filepath.Join(root, "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.IsAbs(target) {
		t.Errorf("Expected relative symlink target, got %s", target)
	}

	// Content still reachable through the link
	content, err := os.ReadFile(filepath.Join(root, "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "shared-content" {
		t.Errorf("Symlink does not resolve to canonical content: %q", content)
	}

	// The unique file is untouched
	info, err = os.Lstat(filepath.Join(root, "unique.png"))
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Error("Expected unique.png to remain a regular file")
	}
}

func TestReplaceAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one", "a.png"), "same")
	writeFile(t, filepath.Join(root, "two", "b.png"), "same")

	stats, failures := scanAndReplace(t, root)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	if stats.Replaced != 1 {
		t.Fatalf("Expected 1 replacement, got %d", stats.Replaced)
	}

	target, err := os.Readlink(filepath.Join(root, "two", "b.png"))
	if err != nil {
		t.Fatal(err)
	}
	expected := filepath.Join("..", "one", "a.png")
	if target != expected {
		t.Errorf("Expected target %s, got %s", expected, target)
	}
}

func TestReplaceIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "dup")
	writeFile(t, filepath.Join(root, "b.png"), "dup")

	stats, _ := scanAndReplace(t, root)
	if stats.Replaced != 1 {
		t.Fatalf("Expected 1 replacement on first pass, got %d", stats.Replaced)
	}

	// Second pass finds nothing to do: the symlink was skipped by the scan
	stats, failures := scanAndReplace(t, root)
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	if stats.Replaced != 0 || stats.AlreadyOK != 0 {
		t.Errorf("Expected second pass to be a no-op, got %+v", stats)
	}
}

func TestReplaceAlreadyLinked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "dup")
	if err := os.Symlink("a.png", filepath.Join(root, "b.png")); err != nil {
		t.Fatal(err)
	}

	index := NewIndex()
	fp := "fp"
	index.Insert(fp, filepath.Join(root, "a.png"))
	duplicates := map[string][]string{fp: {filepath.Join(root, "b.png")}}

	stats, failures := ReplaceWithSymlinks(index, duplicates, logger.NewNopLogger())
	if len(failures) != 0 {
		t.Fatalf("Unexpected failures: %v", failures)
	}
	if stats.AlreadyOK != 1 || stats.Replaced != 0 {
		t.Errorf("Expected existing link to be left alone, got %+v", stats)
	}
}

func TestReplaceReportsFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "dup")

	index := NewIndex()
	index.Insert("fp", filepath.Join(root, "a.png"))
	duplicates := map[string][]string{"fp": {filepath.Join(root, "missing.png")}}

	stats, failures := ReplaceWithSymlinks(index, duplicates, logger.NewNopLogger())
	if stats.Failed != 1 || len(failures) != 1 {
		t.Fatalf("Expected 1 failure, got stats %+v, failures %v", stats, failures)
	}
	if failures[0].Path != filepath.Join(root, "missing.png") {
		t.Errorf("Unexpected failure path: %s", failures[0].Path)
	}

	// The canonical file is never touched
	if _, err := os.Stat(filepath.Join(root, "a.png")); err != nil {
		t.Errorf("Canonical file missing: %v", err)
	}
}
