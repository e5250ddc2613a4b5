// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/analyze"
	"github.com/pdiddy/citation-harvester/internal/download"
	"github.com/pdiddy/citation-harvester/internal/logging"
	"github.com/pdiddy/citation-harvester/internal/pubmed"
	"github.com/pdiddy/citation-harvester/internal/secrets"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download PMC full-text XML for a harvested collection",
	Long: `Download reads a collection written by "pubmed --db pmc" and fetches the
full-text XML of each article with efetch into --output-dir/PMC<id>.xml.
Downloaded IDs are recorded after each article, so a re-run skips them.
Articles without full text are reported and counted; the command exits
non-zero when any article failed.`,
	RunE: runDownload,
}

func init() {
	f := downloadCmd.Flags()
	f.String("input", "ml_medicine_articles.json", "collection JSON to download full texts for")
	f.String("email", "", "email address sent to NCBI (required; default: ncbi-email secret)")
	f.String("api-key", "", "NCBI API key (default: ncbi-api-key secret)")
	f.String("output-dir", "full_texts", "directory for downloaded full texts")
	f.String("progress", "download_progress.json", "download progress file")
	f.Bool("no-resume", false, "re-download articles already recorded as downloaded")
	f.Duration("delay", 340*time.Millisecond, "pause after each request")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.String("base-url", "", "override the E-utilities base URL")
	f.MarkHidden("base-url")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	email := secretSetting(cmd, "email", "pubmed.email", secrets.NCBIEmail)
	if email == "" {
		return fmt.Errorf("an email address is required by NCBI: pass --email or create %s/%s", secrets.DefaultDir, secrets.NCBIEmail)
	}

	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", "download.timeout"),
			UserAgent: defaultUserAgent,
			Retry429:  intSetting(cmd, "retry-429", "retry_429"),
		},
		OutputDir:    stringSetting(cmd, "output-dir", "download.output_dir"),
		ProgressPath: stringSetting(cmd, "progress", "download.progress"),
		Resume:       !boolSetting(cmd, "no-resume", "download.no_resume"),
		Delay:        durationSetting(cmd, "delay", "download.delay"),
	}

	records, err := analyze.LoadRecords(stringSetting(cmd, "input", "download.input"))
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.Source != types.SourcePMC {
			return fmt.Errorf("record %s has source %q; full texts can only be downloaded for %q records", r.ID, r.Source, types.SourcePMC)
		}
		ids = append(ids, r.ID)
	}

	client := &pubmed.Client{
		HTTP:      newHTTPClient(cfg.HTTPConfig),
		Email:     email,
		APIKey:    secretSetting(cmd, "api-key", "pubmed.api_key", secrets.NCBIAPIKey),
		BaseURL:   stringSetting(cmd, "base-url", "pubmed.base_url"),
		UserAgent: cfg.UserAgent,
		Retry429:  cfg.Retry429,
	}
	return runDownloads(cmd.Context(), client, cfg, ids)
}

// runDownloads fetches full texts for ids and fails when any article did.
func runDownloads(ctx context.Context, f download.Fetcher, cfg types.DownloadConfig, ids []string) error {
	d := &download.Downloader{
		Fetcher:      f,
		Dir:          cfg.OutputDir,
		ProgressPath: cfg.ProgressPath,
		Resume:       cfg.Resume,
		Delay:        cfg.Delay,
		Logger:       logging.NewLogger("download"),
	}
	sum, err := d.Run(ctx, ids)
	if err != nil {
		return err
	}
	if sum.HasFailures() {
		return fmt.Errorf("%d of %d article(s) failed to download", sum.Failed, sum.Total())
	}
	return nil
}
