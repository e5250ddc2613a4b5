// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.IndexConfig{Dir: filepath.Join(t.TempDir(), "index")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.Record {
	score := 2.5
	return []types.Record{
		{ID: "W1", Title: "Deep learning for chest radiography", PublicationYear: 2018, CitedByCount: 120, Source: types.SourceOpenAlex,
			Authors: []types.Author{{Name: "Ada Lovelace", ORCID: "https://orcid.org/0000-0001"}}, DOI: "10.1/w1", NormalizedCitationScore: &score},
		{ID: "W2", Title: "Machine learning in sepsis prediction", PublicationYear: 2021, CitedByCount: 40, Source: types.SourceOpenAlex},
		{ID: "123", Title: "Deep reinforcement learning for dosing", PublicationYear: 2022, CitedByCount: 0, Source: types.SourcePMC},
		{ID: "W3", Title: "Rule-based expert systems", PublicationYear: 1995, CitedByCount: 300, Source: types.SourceOpenAlex},
	}
}

func ids(recs []types.Record) []string {
	var out []string
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	s := testStore(t)
	assert.FileExists(t, s.Path())
	assert.Equal(t, dbFile, filepath.Base(s.Path()))
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewStore(types.IndexConfig{Dir: dir}, zerolog.Nop())
	require.NoError(t, err)
	_, err = s1.Ingest(context.Background(), sampleRecords())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewStore(types.IndexConfig{Dir: dir}, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()
	n, err := s2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestIngest_InsertThenUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sum, err := s.Ingest(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Inserted: 4}, sum)

	changed := types.Record{ID: "W2", Title: "Gradient boosting in sepsis prediction", PublicationYear: 2021, CitedByCount: 55, Source: types.SourceOpenAlex}
	sum, err = s.Ingest(ctx, []types.Record{changed, {ID: "W4", Title: "New"}})
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Inserted: 1, Updated: 1}, sum)
	assert.Equal(t, 2, sum.Total())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// The title index follows the update.
	got, err := s.Query(ctx, QueryOptions{Text: "boosting"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 55, got[0].CitedByCount)

	got, err = s.Query(ctx, QueryOptions{Text: "machine"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIngest_RejectsMissingID(t *testing.T) {
	s := testStore(t)
	_, err := s.Ingest(context.Background(), []types.Record{{ID: "A"}, {Title: "no id"}})
	require.Error(t, err)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "failed ingest is rolled back")
}

func TestQuery_Filters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Ingest(ctx, sampleRecords())
	require.NoError(t, err)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"all by citations", QueryOptions{}, []string{"W3", "W1", "W2", "123"}},
		{"full text", QueryOptions{Text: "deep"}, []string{"W1", "123"}},
		{"full text phrase", QueryOptions{Text: `"machine learning"`}, []string{"W2"}},
		{"year range", QueryOptions{YearFrom: 2018, YearTo: 2021}, []string{"W1", "W2"}},
		{"min citations", QueryOptions{MinCitations: 100}, []string{"W3", "W1"}},
		{"source", QueryOptions{Source: types.SourcePMC}, []string{"123"}},
		{"text and year", QueryOptions{Text: "learning", YearFrom: 2021}, []string{"W2", "123"}},
		{"limit", QueryOptions{Limit: 2}, []string{"W3", "W1"}},
		{"no match", QueryOptions{Text: "quantum"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQuery_RoundTripsFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Ingest(ctx, sampleRecords())
	require.NoError(t, err)

	got, err := s.Query(ctx, QueryOptions{Text: "radiography"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, "Deep learning for chest radiography", r.Title)
	assert.Equal(t, 2018, r.PublicationYear)
	assert.Equal(t, "10.1/w1", r.DOI)
	assert.Equal(t, []types.Author{{Name: "Ada Lovelace", ORCID: "https://orcid.org/0000-0001"}}, r.Authors)
	require.NotNil(t, r.NormalizedCitationScore)
	assert.Equal(t, 2.5, *r.NormalizedCitationScore)

	got, err = s.Query(ctx, QueryOptions{Source: types.SourcePMC})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].NormalizedCitationScore)
	assert.Equal(t, []types.Author{}, got[0].Authors)
}
