// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/openalex"
	"github.com/pdiddy/citation-harvester/internal/secrets"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var openalexCmd = &cobra.Command{
	Use:   "openalex",
	Short: "Harvest works from the OpenAlex API",
	Long: `OpenAlex pages through the OpenAlex works endpoint with cursor pagination
and accumulates works into a JSON collection keyed by OpenAlex ID. Each page
is checkpointed; re-running resumes from the last saved cursor unless
--no-resume is given.

The default filter selects works tagged with both the Medicine and the
Artificial Intelligence concepts.`,
	RunE: runOpenAlex,
}

func init() {
	f := openalexCmd.Flags()
	f.String("filter", openalex.DefaultFilter, "OpenAlex filter expression")
	f.String("search", "", "optional free-text search")
	f.Int("per-page", openalex.MaxPerPage, "works per page (1-200)")
	f.String("email", "", "mailto address for the OpenAlex polite pool (default: openalex-email secret)")
	f.String("base-url", "", "override the OpenAlex works endpoint")
	f.MarkHidden("base-url")
	addHarvestFlags(openalexCmd, harvestDefaults{
		output:   "openalex_medicine_ai_works.json",
		progress: "openalex_progress.json",
		delay:    time.Second,
	})

	rootCmd.AddCommand(openalexCmd)
}

func openalexConfig(cmd *cobra.Command) types.OpenAlexConfig {
	return types.OpenAlexConfig{
		HarvestConfig: harvestConfig(cmd, "openalex"),
		Filter:        stringSetting(cmd, "filter", "openalex.filter"),
		Search:        stringSetting(cmd, "search", "openalex.search"),
		PerPage:       intSetting(cmd, "per-page", "openalex.per_page"),
		Email:         secretSetting(cmd, "email", "openalex.email", secrets.OpenAlexEmail),
	}
}

func runOpenAlex(cmd *cobra.Command, args []string) error {
	cfg := openalexConfig(cmd)

	src := &openalex.Source{
		Client:    newHTTPClient(cfg.HTTPConfig),
		BaseURL:   stringSetting(cmd, "base-url", "openalex.base_url"),
		Filter:    cfg.Filter,
		Search:    cfg.Search,
		PerPage:   cfg.PerPage,
		Email:     cfg.Email,
		UserAgent: cfg.UserAgent,
		Retry429:  cfg.Retry429,
	}

	_, err := runHarvest(cmd.Context(), cfg.HarvestConfig, "", src)
	return err
}
