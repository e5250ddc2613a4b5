// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.json")
	records := []types.Record{
		{ID: "W2", Title: "B", PublicationYear: 2019, CitedByCount: 3,
			Authors: []types.Author{{Name: "Ada Lovelace", ID: "A1", ORCID: "0000-0001"}}},
		{ID: "W1", Title: "A", PublicationYear: 2021},
	}
	require.NoError(t, WriteOutput(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "W2", got[0]["id"], "encounter order must be kept")
	assert.Equal(t, float64(3), got[0]["cited_by_count"])
	assert.NotContains(t, got[0], "normalized_citation_score")
	authors := got[0]["authors"].([]any)
	assert.Equal(t, "Ada Lovelace", authors[0].(map[string]any)["name"])
}

func TestWriteOutput_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.json")
	require.NoError(t, WriteOutput(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteIDList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmids.txt")
	require.NoError(t, WriteIDList(path, []types.Record{{ID: "101"}, {ID: "102"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "101\n102\n", string(data))
}

func TestRunSummary_RoundTrip(t *testing.T) {
	state := types.NewProgressState("run-7", "fake")
	state.Upsert(rec("a"))
	state.Upsert(rec("b"))
	res := &Result{RunID: "run-7", State: StateDone, Pages: 2, New: 2, Progress: state}

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := checkpoint.NewFileStore("progress.json")
	s := NewRunSummary(res, []Source{threePageSource()}, store, "out.json", started, nil)

	path := filepath.Join(t.TempDir(), "summary.yaml")
	require.NoError(t, WriteSummary(path, s))

	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "run-7", got.RunID)
	assert.Equal(t, "fake", got.Source)
	assert.Equal(t, []string{"q1"}, got.Queries)
	assert.Equal(t, "DONE", got.State)
	assert.Equal(t, 2, got.Records)
	assert.Equal(t, "out.json", got.Output)
	assert.Equal(t, "file:progress.json", got.Checkpoint)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestRunSummary_Failure(t *testing.T) {
	res := &Result{RunID: "r", State: StateFetching, Pages: 1, Progress: types.NewProgressState("r", "fake")}
	s := NewRunSummary(res, []Source{threePageSource()}, nil, "out.json", time.Now(), errors.New("HTTP 500"))

	assert.Equal(t, "FETCHING", s.State)
	assert.Equal(t, "HTTP 500", s.Error)
	assert.Empty(t, s.Output, "no output is written for a failed run")
}

func TestReadSummary_Missing(t *testing.T) {
	_, err := ReadSummary(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
