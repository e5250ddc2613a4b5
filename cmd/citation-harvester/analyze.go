// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/analyze"
	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank a collection by age-normalized citation count",
	Long: `Analyze groups a collection by publication year, computes the average and
median citation count per year, and scores each record by citations per
year since publication (counting the publication year). It prints the
top-ranked records and the yearly series of average citations and record
counts.

With --write, the collection is rewritten with normalized_citation_score set
on each record.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("input", "openalex_medicine_ai_works.json", "collection JSON to analyze")
	f.Int("current-year", 0, "reference year for citation age (default: this year)")
	f.Int("top", 10, "number of top-ranked records to show")
	f.Int("after-year", analyze.DefaultAfterYear, "limit the yearly series to years after this one")
	f.Bool("json", false, "output the report as JSON")
	f.String("write", "", "write the scored collection to this file")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := types.AnalysisConfig{
		CurrentYear: intSetting(cmd, "current-year", "analyze.current_year"),
		Top:         intSetting(cmd, "top", "analyze.top"),
		AfterYear:   intSetting(cmd, "after-year", "analyze.after_year"),
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}

	input := stringSetting(cmd, "input", "analyze.input")
	records, err := analyze.LoadRecords(input)
	if err != nil {
		return err
	}

	rep := analyze.Analyze(records, cfg)

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		scored := analyze.Normalize(records, rep.Stats, cfg.CurrentYear)
		if err := harvest.WriteOutput(path, scored); err != nil {
			return err
		}
		log.Info().Str("path", path).Int("records", len(scored)).Msg("Wrote scored collection")
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return analyze.FormatJSON(cmd.OutOrStdout(), rep)
	}
	if err := analyze.FormatReport(cmd.OutOrStdout(), rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
