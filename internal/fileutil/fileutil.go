// Package fileutil provides filesystem helpers shared by the exporters and
// the snapshot engine.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbidden holds the characters that cannot appear in exported file or
// directory names on the supported platforms.
const forbidden = `/\:*?"<>|`

// SanitizeName replaces filesystem-hostile characters with underscores and
// trims surrounding whitespace.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(forbidden, r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// AtomicWrite writes data to path through a temporary sibling file and a
// rename, so the destination is either absent or complete. The parent
// directory is created on demand.
func AtomicWrite(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}
	return nil
}
