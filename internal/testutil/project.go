// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// WriteFile writes content to the slash-separated path rel under root,
// creating parent directories, and returns the absolute file path. The test
// fails immediately on error.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}

// WriteManifest writes the package.json of the module directory rel.
func WriteManifest(t testing.TB, root, rel, content string) string {
	t.Helper()
	return WriteFile(t, root, rel+"/package.json", content)
}

// NewProject creates a temporary project root holding files, keyed by
// slash-separated relative path.
func NewProject(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range slices.Sorted(maps.Keys(files)) {
		WriteFile(t, root, rel, files[rel])
	}
	return root
}

// MustRemoveAll removes path and any children it contains.
func MustRemoveAll(t testing.TB, path string) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("failed to remove %s: %v", path, err)
	}
}
