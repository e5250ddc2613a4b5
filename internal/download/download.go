// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download saves PMC full-text XML for harvested records, resuming
// from a persisted set of already downloaded identifiers.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/internal/metrics"
)

// Fetcher returns the full-text body for an article identifier.
type Fetcher interface {
	FetchFullText(ctx context.Context, id string) ([]byte, error)
}

// Summary holds the outcome of a download run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of identifiers processed.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any article failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Downloader fetches full texts one at a time with a pause after each
// request.
type Downloader struct {
	Fetcher Fetcher

	// Dir receives PMC<id>.xml files.
	Dir string

	// ProgressPath holds the JSON array of downloaded identifiers.
	ProgressPath string

	// Resume loads ProgressPath before starting.
	Resume bool

	Delay  time.Duration
	Sleep  harvest.SleepFunc
	Logger zerolog.Logger
}

// FileName returns the file name used for id.
func FileName(id string) string {
	return "PMC" + id + ".xml"
}

// Run downloads every id not already recorded as downloaded. Individual
// failures are logged and counted; Run only returns an error when progress
// cannot be read or written, or ctx is cancelled.
func (d *Downloader) Run(ctx context.Context, ids []string) (Summary, error) {
	var sum Summary

	done, order, err := d.loadProgress()
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return sum, fmt.Errorf("creating output directory %s: %w", d.Dir, err)
	}

	d.Logger.Info().
		Int("articles", len(ids)).
		Int("already_downloaded", len(done)).
		Str("dir", d.Dir).
		Msg("Starting full-text download")

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		logger := d.Logger.With().Str("id", id).Int("n", i+1).Int("of", len(ids)).Logger()

		if done[id] {
			logger.Debug().Msg("Skipping already downloaded article")
			sum.Skipped++
			metrics.DownloadsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		path := filepath.Join(d.Dir, FileName(id))
		body, err := d.Fetcher.FetchFullText(ctx, id)
		if err == nil {
			err = checkpoint.AtomicWriteFile(path, body, 0o644)
		}
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			logger.Error().Err(err).Msg("Download failed")
			sum.Failed++
			metrics.DownloadsTotal.WithLabelValues("failed").Inc()
		} else {
			done[id] = true
			order = append(order, id)
			if err := d.saveProgress(order); err != nil {
				return sum, err
			}
			logger.Info().Str("path", path).Int("bytes", len(body)).Msg("Saved full text")
			sum.Downloaded++
			metrics.DownloadsTotal.WithLabelValues("downloaded").Inc()
		}

		if err := d.sleep(ctx); err != nil {
			return sum, err
		}
	}

	d.Logger.Info().
		Int("downloaded", sum.Downloaded).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("Download complete")
	return sum, nil
}

func (d *Downloader) loadProgress() (map[string]bool, []string, error) {
	done := make(map[string]bool)
	if !d.Resume || d.ProgressPath == "" {
		return done, nil, nil
	}
	data, err := os.ReadFile(d.ProgressPath)
	if errors.Is(err, os.ErrNotExist) {
		return done, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading download progress: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", checkpoint.ErrCorruptProgress, d.ProgressPath, err)
	}
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		if !done[id] {
			done[id] = true
			order = append(order, id)
		}
	}
	return done, order, nil
}

func (d *Downloader) saveProgress(ids []string) error {
	if d.ProgressPath == "" {
		return nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding download progress: %w", err)
	}
	if err := checkpoint.AtomicWriteFile(d.ProgressPath, data, 0o644); err != nil {
		return fmt.Errorf("saving download progress: %w", err)
	}
	return nil
}

func (d *Downloader) sleep(ctx context.Context) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, d.Delay)
	}
	return harvest.SleepContext(ctx, d.Delay)
}
