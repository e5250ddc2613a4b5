// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for harvest runs. A CLI
// run has no scrape endpoint, so collectors are written to a node_exporter
// textfile when the run ends.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesTotal counts pages applied to the progress state, by source.
	PagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_pages_total",
		Help: "Total pages fetched and persisted by source",
	}, []string{"source"})

	// RecordsTotal counts records applied, split into new and overwritten.
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_records_total",
		Help: "Total records applied by source and outcome",
	}, []string{"source", "outcome"}) // outcome: "new", "overwritten"

	// HTTPRequestsTotal counts remote API requests by source and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_http_requests_total",
		Help: "Total remote API requests by source and HTTP status",
	}, []string{"source", "status"})

	// HTTPRequestDuration observes remote API latency by source.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harvest_http_request_duration_seconds",
		Help:    "Remote API request duration in seconds by source",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	// CheckpointWritesTotal counts progress state writes by backend and result.
	CheckpointWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_checkpoint_writes_total",
		Help: "Total checkpoint writes by backend and result",
	}, []string{"backend", "result"}) // result: "ok", "error"

	// DownloadsTotal counts full-text downloads by outcome.
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_downloads_total",
		Help: "Total full-text downloads by outcome",
	}, []string{"outcome"}) // outcome: "downloaded", "skipped", "failed"
)

// ObserveRequest records one remote API request. status is 0 when the
// request failed before a response arrived.
func ObserveRequest(source string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	HTTPRequestsTotal.WithLabelValues(source, label).Inc()
	HTTPRequestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// WriteTextfile writes every collector in the default registry to path in
// the text exposition format. The write is atomic.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(path, prometheus.DefaultGatherer)
}

// WriteTextfileFrom writes the metrics gathered from g to path.
func WriteTextfileFrom(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
