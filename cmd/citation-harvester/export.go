// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/analyze"
	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a collection as a CSL-YAML bibliography",
	Long: `Export converts a collection JSON file into CSL-YAML, the bibliography
format Pandoc and reference managers read. Without --output the
bibliography is written to stdout.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("input", "openalex_medicine_ai_works.json", "collection JSON to export")
	exportCmd.Flags().String("output", "", "CSL-YAML file to write (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	records, err := analyze.LoadRecords(stringSetting(cmd, "input", "export.input"))
	if err != nil {
		return err
	}

	output := stringSetting(cmd, "output", "export.output")
	if output == "" {
		return export.FormatCSL(records, cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := export.FormatCSL(records, &buf); err != nil {
		return fmt.Errorf("formatting CSL: %w", err)
	}
	if err := checkpoint.AtomicWriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), output)
	return nil
}
