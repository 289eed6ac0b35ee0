// Package project locates Unity project roots on disk.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot walks upward from start until it finds a directory containing an
// Assets/ subdirectory, which is how Unity lays out every project. Returns an
// error when the filesystem root is reached without a match.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		assets := filepath.Join(dir, "Assets")
		if info, err := os.Stat(assets); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no Unity project root above %s", start)
		}
		dir = parent
	}
}

// AssetsDir returns the Assets directory for a project root.
func AssetsDir(root string) string {
	return filepath.Join(root, "Assets")
}
