// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/internal/logging"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "citation-harvester/0.1"
)

// harvestDefaults are the per-command defaults of the shared harvest flags.
type harvestDefaults struct {
	output   string
	progress string
	delay    time.Duration
}

// addHarvestFlags registers the flags every paginated harvest shares.
func addHarvestFlags(cmd *cobra.Command, d harvestDefaults) {
	f := cmd.Flags()
	f.String("output", d.output, "JSON file receiving the record collection after a full run")
	f.String("progress", d.progress, "progress file (file checkpoint) or key name (redis checkpoint)")
	f.Bool("no-resume", false, "start fresh, ignoring any stored progress")
	f.Duration("delay", d.delay, "pause after each persisted page")
	f.String("checkpoint", string(types.CheckpointFile), "progress backend: file or redis")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis checkpoint backend")
	f.String("summary", "", "write a YAML run summary to this file")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
}

// harvestConfig reads the shared harvest flags. section prefixes viper keys
// (e.g. "openalex" reads openalex.delay).
func harvestConfig(cmd *cobra.Command, section string) types.HarvestConfig {
	key := func(k string) string { return section + "." + k }
	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", key("timeout")),
			UserAgent: defaultUserAgent,
			Retry429:  intSetting(cmd, "retry-429", "retry_429"),
		},
		Delay:        durationSetting(cmd, "delay", key("delay")),
		OutputPath:   stringSetting(cmd, "output", key("output")),
		ProgressPath: stringSetting(cmd, "progress", key("progress")),
		Resume:       !boolSetting(cmd, "no-resume", key("no_resume")),
		Checkpoint:   types.CheckpointBackend(stringSetting(cmd, "checkpoint", key("checkpoint"))),
		RedisAddr:    stringSetting(cmd, "redis-addr", "redis.addr"),
		SummaryPath:  stringSetting(cmd, "summary", key("summary")),
	}
}

// openCheckpoint returns the progress store cfg selects and a function
// releasing its resources.
func openCheckpoint(ctx context.Context, cfg types.HarvestConfig) (checkpoint.Store, func(), error) {
	switch cfg.Checkpoint {
	case types.CheckpointFile, "":
		return checkpoint.NewFileStore(cfg.ProgressPath), func() {}, nil
	case types.CheckpointRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return checkpoint.NewRedisStore(client, cfg.ProgressPath), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported checkpoint backend %q: use file or redis", cfg.Checkpoint)
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// runHarvest drives sources to completion and writes the outputs. The
// collection is written only after a full run; progress persisted before a
// failure stays in the checkpoint store for the next resume.
func runHarvest(ctx context.Context, cfg types.HarvestConfig, idsOutput string, sources ...harvest.Source) (*harvest.Result, error) {
	store, closeStore, err := openCheckpoint(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	h := &harvest.Harvester{
		Store:  store,
		Delay:  cfg.Delay,
		Resume: cfg.Resume,
		Logger: logging.NewLogger("harvest"),
	}

	started := time.Now()
	res, runErr := h.Run(ctx, sources...)
	if runErr == nil {
		runErr = writeHarvestOutputs(cfg, idsOutput, res)
	}

	if cfg.SummaryPath != "" {
		sum := harvest.NewRunSummary(res, sources, store, cfg.OutputPath, started, runErr)
		if err := harvest.WriteSummary(cfg.SummaryPath, sum); err != nil {
			log.Error().Err(err).Str("path", cfg.SummaryPath).Msg("Writing run summary")
		}
	}
	return res, runErr
}

func writeHarvestOutputs(cfg types.HarvestConfig, idsOutput string, res *harvest.Result) error {
	records := res.Records()
	if err := harvest.WriteOutput(cfg.OutputPath, records); err != nil {
		return err
	}
	log.Info().Str("path", cfg.OutputPath).Int("records", len(records)).Msg("Wrote collection")

	if idsOutput != "" {
		if err := harvest.WriteIDList(idsOutput, records); err != nil {
			return err
		}
		log.Info().Str("path", idsOutput).Msg("Wrote identifier list")
	}
	return nil
}
