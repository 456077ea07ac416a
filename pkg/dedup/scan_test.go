package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Hmiku8338/e621-dl/pkg/logger"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.png"), "content-one")
	writeFile(t, filepath.Join(root, "a.png"), "content-one")
	writeFile(t, filepath.Join(root, "nested", "deep", "c.png"), "content-two")

	entries, err := Scan(context.Background(), root, 4, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	// Lexicographic path order
	if filepath.Base(entries[0].Path) != "a.png" || filepath.Base(entries[1].Path) != "b.png" {
		t.Errorf("Entries not in lexicographic order: %v", entries)
	}

	// Identical content hashes identically
	if entries[0].Fingerprint != entries[1].Fingerprint {
		t.Error("Expected identical content to share a fingerprint")
	}
	if entries[0].Fingerprint == entries[2].Fingerprint {
		t.Error("Expected different content to have different fingerprints")
	}
}

func TestScanSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.png")
	writeFile(t, target, "content")
	if err := os.Symlink("real.png", filepath.Join(root, "link.png")); err != nil {
		t.Fatal(err)
	}

	entries, err := Scan(context.Background(), root, 2, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected symlink to be skipped, got %d entries", len(entries))
	}
	if entries[0].Path != target {
		t.Errorf("Expected %s, got %s", target, entries[0].Path)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), 2, logger.NewNopLogger())
	if err == nil {
		t.Fatal("Expected error for missing root")
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(root, string(rune('a'+i))+".png"), "data")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root, 2, logger.NewNopLogger()); err == nil {
		t.Error("Expected error when context is already cancelled")
	}
}

func TestBuildIndex(t *testing.T) {
	entries := []ScanEntry{
		{Path: "/data/a.png", Fingerprint: "f1"},
		{Path: "/data/b.png", Fingerprint: "f1"},
		{Path: "/data/c.png", Fingerprint: "f2"},
		{Path: "/data/d.png", Fingerprint: "f1"},
	}

	index, duplicates := BuildIndex(entries)

	if index.Len() != 2 {
		t.Errorf("Expected 2 distinct fingerprints, got %d", index.Len())
	}

	// First path seen becomes canonical
	canonical, _ := index.Lookup("f1")
	if canonical != "/data/a.png" {
		t.Errorf("Expected /data/a.png as canonical, got %s", canonical)
	}

	if len(duplicates["f1"]) != 2 {
		t.Errorf("Expected 2 duplicates for f1, got %v", duplicates["f1"])
	}
	if len(duplicates["f2"]) != 0 {
		t.Errorf("Expected no duplicates for f2, got %v", duplicates["f2"])
	}
}
