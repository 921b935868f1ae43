package oid

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DigestBytes computes the hex digest of b under algo.
func DigestBytes(b []byte, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DigestStream computes the hex digest of everything read from r under
// algo, in a single pass.
func DigestStream(r io.Reader, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("oid: digesting stream: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DigestFile computes the hex digest of the file at path under algo.
func DigestFile(path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("oid: digesting %s: %w", path, err)
	}
	defer f.Close()
	return DigestStream(f, algo)
}

// Verify reports whether the file at path digests to expectedHex under
// algo.
func Verify(path, expectedHex string, algo Algorithm) (bool, error) {
	got, err := DigestFile(path, algo)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(got, expectedHex), nil
}
