// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-harvester CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-harvester/internal/logging"
	"github.com/pdiddy/citation-harvester/internal/metrics"
	"github.com/pdiddy/citation-harvester/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// metricsFile is where collectors are written when the command exits.
var metricsFile string

// rootCmd is the base command for the citation-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "citation-harvester",
	Short: "Resumable harvester for bibliographic records",
	Long: `citation-harvester pages through public bibliographic APIs (OpenAlex,
PubMed Central via NCBI E-utilities) and accumulates deduplicated records
into a local JSON collection. Every page is checkpointed, so an interrupted
harvest resumes where it stopped.

Collections can then be analyzed for age-normalized citation impact,
indexed into SQLite for querying, or exported as a CSL bibliography.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./citation-harvester.yaml or ~/.config/citation-harvester/config.yaml)")
	pf.String("log-level", string(logging.LevelInfo), "minimum log level: debug, info, warn, error")
	pf.Bool("log-pretty", true, "human-readable console logs (false writes JSON lines)")
	pf.String("metrics-file", "", "write Prometheus metrics in text format to this file on exit")
	pf.Int("retry-429", 0, "retries with exponential backoff on HTTP 429 (0 = fail on the first 429)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of credential files (ncbi-email, ncbi-api-key, openalex-email)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-harvester"))
		}
	}

	viper.SetEnvPrefix("CITATION_HARVESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// setup configures logging, loads secrets, and records the metrics file
// before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	logging.Setup(logging.Config{
		Level:  logging.Level(stringSetting(cmd, "log-level", "log.level")),
		Pretty: boolSetting(cmd, "log-pretty", "log.pretty"),
		Output: os.Stderr,
	})
	metricsFile = stringSetting(cmd, "metrics-file", "metrics_file")

	s, err := secrets.Load(stringSetting(cmd, "secrets-dir", "secrets_dir"))
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		log.Debug().Strs("keys", keys).Msg("Loaded secrets")
	}
	return nil
}

// writeMetrics flushes collectors to the metrics file, if one was given.
func writeMetrics() {
	if metricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(metricsFile); err != nil {
		log.Error().Err(err).Msg("Writing metrics")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	writeMetrics()
	if err != nil {
		log.Error().Err(err).Msg("citation-harvester failed")
		os.Exit(1)
	}
}
