// Package hash computes content fingerprints for downloaded files.
//
// Fingerprints are hex-encoded MD5 digests, matching the md5 field the
// service reports for every post, so locally computed and service-supplied
// fingerprints compare directly.
package hash

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	errs "github.com/Hmiku8338/e621-dl/pkg/errors"
)

// File reads the full content of the file at path and returns its
// fingerprint. The file is not held open longer than the read.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeFilesystem, "failed to open %s: %v", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.Newf(errs.ErrorTypeFilesystem, "failed to read %s: %v", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reader consumes r to EOF and returns the fingerprint of its content.
func Reader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the fingerprint of b.
func Bytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
