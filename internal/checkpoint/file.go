// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pdiddy/citation-harvester/internal/metrics"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// FileStore keeps the progress state in a JSON file that is overwritten
// wholesale on every Save.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the progress file. A missing file yields a nil state.
func (f *FileStore) Load(_ context.Context) (*types.ProgressState, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading progress file %s: %w", f.Path, err)
	}

	var s types.ProgressState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptProgress, f.Path, err)
	}
	if s.Records == nil {
		s.Records = make(map[string]types.Record)
	}
	return &s, nil
}

// Save writes s to the progress file atomically.
func (f *FileStore) Save(_ context.Context, s *types.ProgressState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling progress state: %w", err)
	}
	if err := AtomicWriteFile(f.Path, data, 0o644); err != nil {
		metrics.CheckpointWritesTotal.WithLabelValues("file", "error").Inc()
		return fmt.Errorf("saving progress file %s: %w", f.Path, err)
	}
	metrics.CheckpointWritesTotal.WithLabelValues("file", "ok").Inc()
	return nil
}

// Delete removes the progress file.
func (f *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing progress file %s: %w", f.Path, err)
	}
	return nil
}

// Describe implements Store.
func (f *FileStore) Describe() string { return "file:" + f.Path }
