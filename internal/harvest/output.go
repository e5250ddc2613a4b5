// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// WriteOutput writes records as an indented JSON array to path, replacing
// any previous file atomically. An empty collection is written as [].
func WriteOutput(path string, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	data = append(data, '\n')
	if err := checkpoint.AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output %s: %w", path, err)
	}
	return nil
}

// WriteIDList writes one record identifier per line to path.
func WriteIDList(path string, records []types.Record) error {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.ID)
		b.WriteByte('\n')
	}
	if err := checkpoint.AtomicWriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing id list %s: %w", path, err)
	}
	return nil
}
