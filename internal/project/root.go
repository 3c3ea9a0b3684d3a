package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName is the project manifest file.
const ManifestName = "keel.toml"

// FindManifest returns the nearest keel.toml in startDir or one of its
// parents. ok is false when the walk reaches the filesystem root.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for parent := ""; parent != dir; dir, parent = filepath.Dir(dir), dir {
		candidate := filepath.Join(dir, ManifestName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// FindProjectRoot returns the directory holding keel.toml.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if !ok {
		return "", false, err
	}
	return filepath.Dir(path), true, nil
}
