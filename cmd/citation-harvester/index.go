// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/analyze"
	"github.com/pdiddy/citation-harvester/internal/index"
	"github.com/pdiddy/citation-harvester/internal/logging"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite record index (ingest, query)",
	Long: `Index keeps records from any number of collections in a local SQLite
database with a full-text index over titles. Use subcommands to ingest a
collection or query the index.`,
}

// --- ingest subcommand ---

var indexIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Upsert a collection into the index",
	Long: `Ingest reads a collection JSON file and upserts its records into
<dir>/records.db. Records already present are overwritten by ID.`,
	RunE: runIndexIngest,
}

func runIndexIngest(cmd *cobra.Command, args []string) error {
	records, err := analyze.LoadRecords(stringSetting(cmd, "input", "index.input"))
	if err != nil {
		return err
	}

	store, err := index.NewStore(indexConfig(cmd), logging.NewLogger("index"))
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := store.Ingest(cmd.Context(), records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d, updated: %d\n", sum.Inserted, sum.Updated)
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the index with full-text search and filters",
	Long: `Query matches titles with an FTS4 expression and filters by year range,
minimum citation count, and source. Results are ordered by citation count.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	store, err := index.NewStore(indexConfig(cmd), logging.NewLogger("index"))
	if err != nil {
		return err
	}
	defer store.Close()

	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	yearFrom, _ := cmd.Flags().GetInt("year-from")
	yearTo, _ := cmd.Flags().GetInt("year-to")
	minCitations, _ := cmd.Flags().GetInt("min-citations")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := store.Query(cmd.Context(), index.QueryOptions{
		Text:         text,
		YearFrom:     yearFrom,
		YearTo:       yearTo,
		MinCitations: minCitations,
		Source:       source,
		Limit:        limit,
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []types.Record, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []types.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-9s  %-4s  %-60s  %s\n", "Rank", "Citations", "Year", "Title", "First author")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, r := range results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-9d  %-4d  %-60s  %s\n", i+1, r.CitedByCount, r.PublicationYear, title, r.FirstAuthor())
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- shared helpers ---

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	return types.IndexConfig{
		Dir:        stringSetting(cmd, "dir", "index.dir"),
		MaxResults: intSetting(cmd, "max-results", "index.max_results"),
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("dir", "index", "directory holding records.db")
	indexCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	indexIngestCmd.Flags().String("input", "openalex_medicine_ai_works.json", "collection JSON to ingest")

	indexQueryCmd.Flags().String("query", "", "FTS4 match expression over titles")
	indexQueryCmd.Flags().Int("year-from", 0, "earliest publication year")
	indexQueryCmd.Flags().Int("year-to", 0, "latest publication year")
	indexQueryCmd.Flags().Int("min-citations", 0, "minimum citation count")
	indexQueryCmd.Flags().String("source", "", "filter by source: openalex, pmc, pubmed")
	indexQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	indexCmd.AddCommand(indexIngestCmd)
	indexCmd.AddCommand(indexQueryCmd)

	rootCmd.AddCommand(indexCmd)
}
