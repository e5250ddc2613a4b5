// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

func work(id string, year, cited int, authors ...string) types.Record {
	r := types.Record{ID: id, Title: "Work " + id, PublicationYear: year, CitedByCount: cited, Source: types.SourceOpenAlex}
	for _, a := range authors {
		r.Authors = append(r.Authors, types.Author{Name: a})
	}
	return r
}

func sample() []types.Record {
	return []types.Record{
		work("a", 2020, 10, "Ada"),
		work("b", 2020, 20),
		work("c", 2020, 60),
		work("d", 2024, 8, "Dee"),
		work("e", 2024, 0),
		work("f", 0, 100),
		work("g", 1999, 0),
	}
}

func TestStatsByYear(t *testing.T) {
	stats := StatsByYear(sample())

	require.Len(t, stats, 3, "records without a year are ignored")
	assert.Equal(t, YearStats{Average: 30, Median: 20, Count: 3}, stats[2020])
	assert.Equal(t, YearStats{Average: 4, Median: 4, Count: 2}, stats[2024])
	assert.Equal(t, YearStats{Average: 0, Median: 0, Count: 1}, stats[1999])
}

func TestNormalize(t *testing.T) {
	recs := sample()
	out := Normalize(recs, StatsByYear(recs), 2025)
	require.Len(t, out, len(recs))

	score := func(i int) *float64 { return out[i].NormalizedCitationScore }

	// 10 / (2025 - 2020 + 1)
	require.NotNil(t, score(0))
	assert.InDelta(t, 10.0/6.0, *score(0), 1e-9)
	require.NotNil(t, score(3))
	assert.InDelta(t, 8.0/2.0, *score(3), 1e-9)
	require.NotNil(t, score(4))
	assert.Equal(t, 0.0, *score(4))

	assert.Nil(t, score(5), "no publication year")
	assert.Nil(t, score(6), "year average is zero")

	for _, r := range recs {
		assert.Nil(t, r.NormalizedCitationScore, "input is not modified")
	}
}

func TestNormalize_FutureYearHasNoScore(t *testing.T) {
	recs := []types.Record{work("x", 2030, 5)}
	out := Normalize(recs, StatsByYear(recs), 2025)
	assert.Nil(t, out[0].NormalizedCitationScore)
}

func TestRank(t *testing.T) {
	recs := sample()
	ranked := Rank(Normalize(recs, StatsByYear(recs), 2025), 3)

	var ids []string
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	// c=10, d=4, b=3.33, a=1.67, e=0
	assert.Equal(t, []string{"c", "d", "b"}, ids)

	all := Rank(Normalize(recs, StatsByYear(recs), 2025), 0)
	assert.Len(t, all, 5)
}

func TestSeries(t *testing.T) {
	stats := map[int]YearStats{
		1998: {Average: 1, Count: 1},
		2000: {Average: 2, Count: 2},
		2012: {Average: 5, Count: 4},
		2001: {Average: 3, Count: 3},
	}
	assert.Equal(t, []Point{
		{Year: 2001, Average: 3, Count: 3},
		{Year: 2012, Average: 5, Count: 4},
	}, Series(stats, DefaultAfterYear))
	assert.Len(t, Series(stats, 1990), 4)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 3.0, median([]int{3}))
	assert.Equal(t, 2.5, median([]int{4, 1, 3, 2}))
	assert.Equal(t, 2.0, median([]int{3, 1, 2}))
}

func TestAnalyze_AndFormat(t *testing.T) {
	rep := Analyze(sample(), types.AnalysisConfig{CurrentYear: 2025, Top: 2})
	assert.Equal(t, 7, rep.Records)
	assert.Equal(t, 5, rep.Scored)
	require.Len(t, rep.Top, 2)
	assert.Equal(t, "c", rep.Top[0].ID)
	assert.Equal(t, []Point{{Year: 2020, Average: 30, Count: 3}, {Year: 2024, Average: 4, Count: 2}}, rep.Series)

	var buf bytes.Buffer
	require.NoError(t, FormatReport(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "Top 2 High-Impact Works")
	assert.Contains(t, out, "1. Work c")
	assert.Contains(t, out, "Year: 2020, Citations: 60, Normalized: 10.00")
	assert.Contains(t, out, "First Author: Unknown")
	assert.Contains(t, out, "First Author: Dee")
	assert.Contains(t, out, "7 records, 5 scored")

	buf.Reset()
	require.NoError(t, FormatJSON(&buf, rep))
	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2025, decoded.CurrentYear)
	assert.Len(t, decoded.Top, 2)
	assert.Equal(t, YearStats{Average: 30, Median: 20, Count: 3}, decoded.Stats[2020])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"W1","title":"t","publication_year":2020,"cited_by_count":3,"authors":[],"source":"openalex"}]`), 0o644))

	recs, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "W1", recs[0].ID)
	assert.Equal(t, 2020, recs[0].PublicationYear)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadRecords(path)
	assert.Error(t, err)

	_, err = LoadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
