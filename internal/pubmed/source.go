// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// DefaultBatchSize is the number of IDs requested per esearch page.
const DefaultBatchSize = 100

// Source is a harvest.Source over one esearch term. Its token is the
// decimal retstart offset of the next batch.
type Source struct {
	Client    *Client
	DB        string
	Term      string
	BatchSize int

	// Delay is the pause before requesting the next batch when a batch
	// yields no summaries.
	Delay time.Duration
	// Sleep defaults to harvest.SleepContext.
	Sleep harvest.SleepFunc
}

// Name returns the record source for the database searched.
func (s *Source) Name() string {
	if s.db() == "pubmed" {
		return types.SourcePubMed
	}
	return types.SourcePMC
}

// Query returns the search term.
func (s *Source) Query() string { return s.Term }

// InitialToken starts at offset zero.
func (s *Source) InitialToken() string { return "0" }

func (s *Source) db() string {
	if s.DB == "" {
		return DefaultDB
	}
	return s.DB
}

func (s *Source) batchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// FetchPage searches one batch of IDs at the offset in token and resolves
// them to records with esummary. A batch whose IDs all lack summaries is
// skipped and the following batch is fetched, so an empty page only ever
// means esearch ran out of IDs.
func (s *Source) FetchPage(ctx context.Context, token string) (harvest.Page, error) {
	retstart, err := strconv.Atoi(token)
	if err != nil || retstart < 0 {
		return harvest.Page{}, fmt.Errorf("invalid retstart token %q", token)
	}

	for {
		sr, err := s.Client.Search(ctx, s.db(), s.Term, retstart, s.batchSize())
		if err != nil {
			return harvest.Page{}, err
		}
		if len(sr.IDs) == 0 {
			return harvest.Page{}, nil
		}

		records, err := s.Client.Summaries(ctx, s.db(), sr.IDs)
		if err != nil {
			return harvest.Page{}, err
		}

		next := ""
		if end := retstart + len(sr.IDs); end < sr.Count {
			next = strconv.Itoa(end)
		}
		if len(records) > 0 || next == "" {
			return harvest.Page{Records: records, NextToken: next}, nil
		}

		log.Warn().
			Str("term", s.Term).
			Int("retstart", retstart).
			Int("ids", len(sr.IDs)).
			Msg("No summaries in batch, skipping to next offset")
		if err := s.sleep(ctx); err != nil {
			return harvest.Page{}, err
		}
		retstart += len(sr.IDs)
	}
}

func (s *Source) sleep(ctx context.Context) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, s.Delay)
	}
	return harvest.SleepContext(ctx, s.Delay)
}
