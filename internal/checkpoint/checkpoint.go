// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists harvest progress state between runs.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

// ErrCorruptProgress is returned when a stored progress state cannot be
// decoded. Restart with resume disabled to discard it.
var ErrCorruptProgress = errors.New("corrupt progress state")

// Store loads and saves the progress state of one harvest.
type Store interface {
	// Load returns the stored state, or nil with no error when nothing has
	// been stored yet.
	Load(ctx context.Context) (*types.ProgressState, error)

	// Save replaces the stored state with s.
	Save(ctx context.Context, s *types.ProgressState) error

	// Delete removes the stored state. Deleting a missing state is not an error.
	Delete(ctx context.Context) error

	// Describe names the backend and location for log lines.
	Describe() string
}

// AtomicWriteFile writes data to a temp file next to path, syncs it, and
// renames it over path. Readers see either the old or the new contents.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	switch {
	case writeErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	case syncErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", syncErr)
	case closeErr != nil:
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
