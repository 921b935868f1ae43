// Package uuid supplies unique suffixes for the temp-file-then-rename
// writes the store, pointer, manifest, and snapshot writers all use.
package uuid

import (
	"github.com/google/uuid"
)

// NewString returns a new V7 UUID string. V7 UUIDs are time-ordered, which
// keeps temp files created in the same directory sorting near each other.
func NewString() string {
	return uuid.Must(uuid.NewV7()).String()
}

// TempName returns a sibling temp file name for path, suffixed with a
// fresh UUID so concurrent writers never collide.
func TempName(path string) string {
	return path + ".tmp-" + NewString()
}
