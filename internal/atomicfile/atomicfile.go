// Package atomicfile implements the temp-file-then-rename write pattern
// used throughout the store and state subsystem, adapted from the
// filesystem storage driver's PutContent (write to a UUID-suffixed temp
// path, then rename over the destination).
package atomicfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a2-ai/dvs/internal/uuid"
)

// WriteBytes writes contents to path atomically: it writes to a sibling
// temp file first, then renames it into place. The destination's parent
// directory is created if necessary.
func WriteBytes(path string, contents []byte, perm os.FileMode) error {
	return WriteFrom(path, bytes.NewReader(contents), perm)
}

// WriteFrom copies r into path atomically via a temp-file-then-rename.
func WriteFrom(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return fmt.Errorf("atomicfile: creating parent of %s: %w", path, err)
	}

	tmp := uuid.TempName(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("atomicfile: creating temp file for %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomicfile: writing temp file for %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomicfile: closing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomicfile: renaming into %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst atomically (via a temp-file-then-rename at
// dst), preserving neither ownership nor mode beyond perm.
func CopyFile(dst, src string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("atomicfile: opening source %s: %w", src, err)
	}
	defer in.Close()
	return WriteFrom(dst, in, perm)
}
