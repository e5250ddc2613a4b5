// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/internal/pubmed"
	"github.com/pdiddy/citation-harvester/internal/secrets"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

const defaultPubMedTerm = "Artificial Intelligence"

var pubmedCmd = &cobra.Command{
	Use:   "pubmed",
	Short: "Harvest article summaries from PubMed Central",
	Long: `PubMed searches an Entrez database (pmc by default) through NCBI
E-utilities. Each --term is paged with esearch in batches of --batch-size
IDs, resolved to summaries with esummary, and merged into one collection
keyed by UID. Completed terms are skipped when a run is resumed.

--mesh terms are combined into a single MeSH query with --operator. NCBI
requires an email address; an API key raises the rate limit. Both may come
from .secrets/ncbi-email and .secrets/ncbi-api-key.

With --download, full-text XML is fetched for every harvested article
after the search completes.`,
	RunE: runPubMed,
}

func init() {
	f := pubmedCmd.Flags()
	f.String("email", "", "email address sent to NCBI (required; default: ncbi-email secret)")
	f.String("api-key", "", "NCBI API key (default: ncbi-api-key secret)")
	f.String("tool", pubmed.DefaultTool, "tool name sent to NCBI")
	f.String("db", pubmed.DefaultDB, "Entrez database: pmc or pubmed")
	f.StringArray("term", nil, "search term, repeatable (default \""+defaultPubMedTerm+"\")")
	f.StringArray("mesh", nil, "MeSH heading, repeatable; combined into one query")
	f.String("operator", "AND", "operator joining --mesh headings: AND or OR")
	f.Int("batch-size", pubmed.DefaultBatchSize, "IDs per esearch page")
	f.String("ids-output", "", "also write one UID per line to this file")
	f.Bool("download", false, "download full-text XML after the search")
	f.String("output-dir", "full_texts", "directory for downloaded full texts")
	f.String("download-progress", "download_progress.json", "download progress file")
	f.String("base-url", "", "override the E-utilities base URL")
	f.MarkHidden("base-url")
	addHarvestFlags(pubmedCmd, harvestDefaults{
		output:   "ml_medicine_articles.json",
		progress: "search_progress.json",
		delay:    340 * time.Millisecond,
	})

	rootCmd.AddCommand(pubmedCmd)
}

func pubmedConfig(cmd *cobra.Command) (types.PubMedConfig, error) {
	cfg := types.PubMedConfig{
		HarvestConfig: harvestConfig(cmd, "pubmed"),
		Email:         secretSetting(cmd, "email", "pubmed.email", secrets.NCBIEmail),
		APIKey:        secretSetting(cmd, "api-key", "pubmed.api_key", secrets.NCBIAPIKey),
		Tool:          stringSetting(cmd, "tool", "pubmed.tool"),
		DB:            stringSetting(cmd, "db", "pubmed.db"),
		Terms:         stringSliceSetting(cmd, "term", "pubmed.terms"),
		BatchSize:     intSetting(cmd, "batch-size", "pubmed.batch_size"),
		IDsOutputPath: stringSetting(cmd, "ids-output", "pubmed.ids_output"),
	}
	if cfg.Email == "" {
		return cfg, fmt.Errorf("an email address is required by NCBI: pass --email or create %s/%s", secrets.DefaultDir, secrets.NCBIEmail)
	}
	if cfg.DB != "pmc" && cfg.DB != "pubmed" {
		return cfg, fmt.Errorf("unsupported database %q: use pmc or pubmed", cfg.DB)
	}

	mesh := stringSliceSetting(cmd, "mesh", "pubmed.mesh")
	if len(mesh) > 0 {
		op := strings.ToUpper(stringSetting(cmd, "operator", "pubmed.operator"))
		if op != "AND" && op != "OR" {
			return cfg, fmt.Errorf("unsupported operator %q: use AND or OR", op)
		}
		cfg.Terms = append(cfg.Terms, pubmed.MeSHQuery(mesh, op))
	}
	if len(cfg.Terms) == 0 {
		cfg.Terms = []string{defaultPubMedTerm}
	}
	return cfg, nil
}

func runPubMed(cmd *cobra.Command, args []string) error {
	cfg, err := pubmedConfig(cmd)
	if err != nil {
		return err
	}

	client := &pubmed.Client{
		HTTP:      newHTTPClient(cfg.HTTPConfig),
		Email:     cfg.Email,
		APIKey:    cfg.APIKey,
		Tool:      cfg.Tool,
		BaseURL:   stringSetting(cmd, "base-url", "pubmed.base_url"),
		UserAgent: cfg.UserAgent,
		Retry429:  cfg.Retry429,
	}

	sources := make([]harvest.Source, len(cfg.Terms))
	for i, term := range cfg.Terms {
		sources[i] = &pubmed.Source{
			Client:    client,
			DB:        cfg.DB,
			Term:      term,
			BatchSize: cfg.BatchSize,
			Delay:     cfg.Delay,
		}
	}

	res, err := runHarvest(cmd.Context(), cfg.HarvestConfig, cfg.IDsOutputPath, sources...)
	if err != nil {
		return err
	}

	if !boolSetting(cmd, "download", "pubmed.download") {
		return nil
	}
	if cfg.DB != "pmc" {
		return fmt.Errorf("--download needs PMC identifiers; harvest with --db pmc")
	}

	dcfg := types.DownloadConfig{
		HTTPConfig:   cfg.HTTPConfig,
		OutputDir:    stringSetting(cmd, "output-dir", "download.output_dir"),
		ProgressPath: stringSetting(cmd, "download-progress", "download.progress"),
		Resume:       cfg.Resume,
		Delay:        cfg.Delay,
	}
	ids := make([]string, 0, res.Progress.Len())
	for _, r := range res.Records() {
		ids = append(ids, r.ID)
	}
	return runDownloads(cmd.Context(), client, dcfg, ids)
}
