package fsutils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// CreateDir creates a directory (and parents) if it doesn't exist.
func CreateDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a path exists and is a regular file (not a directory).
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Not found, permissions, etc. all count as "no usable file"
		return false
	}
	return !info.IsDir()
}

// WriteFileAtomic replaces the file at path with content.
// The data is written to a temporary file in the same directory and renamed over the
// target, so readers see either the old content or the new content, never a mix.
// On any failure the existing file is left untouched.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	// Remove the temp file on every failure path; after a successful rename this is a no-op error we ignore.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file %q: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %q: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %q into place at %q: %w", tmpName, path, err)
	}
	return nil
}

// nonKeyCharRegex matches any character that is NOT a letter, number, underscore or hyphen.
var nonKeyCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
var collapseUnderscoreRegex = regexp.MustCompile(`_+`)

// SanitizeFilename converts a storage key into a safe file name.
// Disallowed characters (including periods and path separators) become underscores
// and consecutive underscores collapse, so a key can never name a hidden or parent path.
func SanitizeFilename(name string) string {
	trimmed := strings.TrimSpace(name)
	sanitized := nonKeyCharRegex.ReplaceAllString(trimmed, "_")
	collapsed := collapseUnderscoreRegex.ReplaceAllString(sanitized, "_")

	if collapsed == "" && name != "" {
		return "_"
	}
	return collapsed
}
