package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/matzehuels/cratemod/pkg/errors"
)

// ReadManifest reads the manifest file at path and returns its text.
func ReadManifest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to read manifest contents of %s", path)
		}
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to read manifest contents of %s", path)
	}
	return string(data), nil
}

// WriteManifest atomically replaces the file at path with text. The text
// is written to a uniquely named temp file in the same directory and
// renamed over the target, so readers never observe a partial write.
func WriteManifest(path, text string) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write updated %s", filepath.Base(path))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write updated %s", filepath.Base(path))
	}
	return nil
}

// FindManifest walks up from startDir looking for a Cargo.toml, the way
// cargo locates the active package. Returns the absolute path of the
// first one found.
func FindManifest(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid directory %s", startDir)
	}
	for {
		candidate := filepath.Join(dir, "Cargo.toml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.ErrCodeFileNotFound, "could not find `Cargo.toml` in `%s` or any parent directory", startDir)
		}
		dir = parent
	}
}
