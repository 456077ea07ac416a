package hash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"errors"

	errs "github.com/Hmiku8338/e621-dl/pkg/errors"
)

// Well-known digest of "hello world"
const helloDigest = "5eb63bbbe01eeed093cb22bb8f5acdc3"

func TestBytes(t *testing.T) {
	if got := Bytes([]byte("hello world")); got != helloDigest {
		t.Errorf("Expected %s, got %s", helloDigest, got)
	}

	// Empty input still has a well-defined fingerprint
	if got := Bytes(nil); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Unexpected fingerprint for empty input: %s", got)
	}
}

func TestReader(t *testing.T) {
	got, err := Reader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	if got != helloDigest {
		t.Errorf("Expected %s, got %s", helloDigest, got)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if got != helloDigest {
		t.Errorf("Expected %s, got %s", helloDigest, got)
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeFilesystem {
		t.Errorf("Expected filesystem error, got %v", err)
	}
}

func TestFileMatchesBytes(t *testing.T) {
	content := []byte("some binary\x00content")
	path := filepath.Join(t.TempDir(), "blob")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != Bytes(content) {
		t.Error("File and Bytes disagree on the same content")
	}
}
