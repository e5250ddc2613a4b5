// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze computes per-year citation statistics and an
// age-normalized citation score over a harvested collection.
package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

// DefaultAfterYear bounds the yearly series to years after 2000.
const DefaultAfterYear = 2000

// YearStats summarizes the citation counts of one publication year.
type YearStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Count   int     `json:"count"`
}

// Point is one year of the yearly series.
type Point struct {
	Year    int     `json:"year"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Report is the result of an analysis run.
type Report struct {
	CurrentYear int               `json:"current_year"`
	Records     int               `json:"records"`
	Scored      int               `json:"scored"`
	Top         []types.Record    `json:"top"`
	Series      []Point           `json:"series"`
	Stats       map[int]YearStats `json:"stats"`
}

// LoadRecords reads a JSON array of records.
func LoadRecords(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var records []types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records %s: %w", path, err)
	}
	return records, nil
}

// StatsByYear groups citation counts by publication year. Records without
// a year are left out.
func StatsByYear(records []types.Record) map[int]YearStats {
	byYear := make(map[int][]int)
	for _, r := range records {
		if r.PublicationYear == 0 {
			continue
		}
		byYear[r.PublicationYear] = append(byYear[r.PublicationYear], r.CitedByCount)
	}

	stats := make(map[int]YearStats, len(byYear))
	for year, cites := range byYear {
		stats[year] = YearStats{
			Average: mean(cites),
			Median:  median(cites),
			Count:   len(cites),
		}
	}
	return stats
}

// Normalize returns a copy of records with NormalizedCitationScore set to
// citations per year since publication, counting the publication year:
// cited_by_count / (currentYear - year + 1). The score is nil when the
// year has no stats, its average is zero, or the record is dated after
// currentYear.
func Normalize(records []types.Record, stats map[int]YearStats, currentYear int) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		r.NormalizedCitationScore = nil
		if s, ok := stats[r.PublicationYear]; ok && s.Average > 0 {
			if age := currentYear - r.PublicationYear + 1; age > 0 {
				score := float64(r.CitedByCount) / float64(age)
				r.NormalizedCitationScore = &score
			}
		}
		out[i] = r
	}
	return out
}

// Rank returns the n highest-scoring records, score descending. Records
// without a score are excluded. Ties keep input order. n <= 0 returns all
// scored records.
func Rank(records []types.Record, n int) []types.Record {
	var scored []types.Record
	for _, r := range records {
		if r.NormalizedCitationScore != nil {
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].NormalizedCitationScore > *scored[j].NormalizedCitationScore
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// Series returns the yearly average and count for years strictly after
// afterYear, in ascending year order.
func Series(stats map[int]YearStats, afterYear int) []Point {
	var points []Point
	for year, s := range stats {
		if year > afterYear {
			points = append(points, Point{Year: year, Average: s.Average, Count: s.Count})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points
}

// Analyze runs the full pipeline over records.
func Analyze(records []types.Record, cfg types.AnalysisConfig) Report {
	afterYear := cfg.AfterYear
	if afterYear == 0 {
		afterYear = DefaultAfterYear
	}
	stats := StatsByYear(records)
	normalized := Normalize(records, stats, cfg.CurrentYear)
	scored := Rank(normalized, 0)
	top := scored
	if cfg.Top > 0 && len(top) > cfg.Top {
		top = top[:cfg.Top]
	}
	return Report{
		CurrentYear: cfg.CurrentYear,
		Records:     len(records),
		Scored:      len(scored),
		Top:         top,
		Series:      Series(stats, afterYear),
		Stats:       stats,
	}
}

// FormatReport writes the top records and the yearly series as text.
func FormatReport(w io.Writer, rep Report) error {
	fmt.Fprintf(w, "\nTop %d High-Impact Works (Normalized Citation Score):\n\n", len(rep.Top))
	for i, r := range rep.Top {
		fmt.Fprintf(w, "%d. %s\n", i+1, truncate(r.Title, 80))
		fmt.Fprintf(w, "   Year: %d, Citations: %d, Normalized: %.2f\n", r.PublicationYear, r.CitedByCount, *r.NormalizedCitationScore)
		fmt.Fprintf(w, "   First Author: %s\n\n", r.FirstAuthor())
	}

	fmt.Fprintf(w, "Citations by year:\n\n")
	fmt.Fprintf(w, "%-6s %10s %8s\n", "Year", "Average", "Count")
	for _, p := range rep.Series {
		fmt.Fprintf(w, "%-6d %10.2f %8d\n", p.Year, p.Average, p.Count)
	}
	_, err := fmt.Fprintf(w, "\n%d records, %d scored\n", rep.Records, rep.Scored)
	return err
}

// FormatJSON writes the report as indented JSON.
func FormatJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func median(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]int(nil), xs...)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}
