// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs the paginated fetch-and-persist loop: fetch one page
// with the current token, fold its records into the accumulated collection
// by identifier, checkpoint, pause, and repeat until the source signals no
// further pages.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/citation-harvester/internal/checkpoint"
	"github.com/pdiddy/citation-harvester/internal/metrics"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var (
	// ErrMalformedResponse marks a page whose body lacked required fields.
	// The page is not applied.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTokenNotAdvanced is returned when a source hands back the token
	// that was just fetched, which would loop forever.
	ErrTokenNotAdvanced = errors.New("next-page token did not advance")

	// ErrSourceMismatch is returned when the stored progress belongs to a
	// different source.
	ErrSourceMismatch = errors.New("progress state belongs to a different source")
)

// Page is one response from a paginated listing endpoint.
type Page struct {
	Records []types.Record
	// NextToken is empty when the source has no further pages.
	NextToken string
}

// Source is a paginated remote listing for one query.
type Source interface {
	// Name identifies the API (e.g. "openalex"); stored with the state.
	Name() string
	// Query describes the query; completed queries are skipped on resume.
	Query() string
	// InitialToken is the token for the first page.
	InitialToken() string
	// FetchPage issues a single request for token.
	FetchPage(ctx context.Context, token string) (Page, error)
}

// State is the loop state.
type State int

const (
	StateFetching State = iota
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "FETCHING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Harvester drives sources page by page into a checkpoint store.
type Harvester struct {
	Store checkpoint.Store

	// Delay is the pause after every persisted page.
	Delay time.Duration

	// Sleep defaults to a context-aware timer. Tests substitute a counter.
	Sleep SleepFunc

	// Resume loads the stored state instead of starting empty.
	Resume bool

	// RunID tags a fresh state. Generated when empty.
	RunID string

	Logger zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes a finished or aborted run.
type Result struct {
	RunID       string
	State       State
	Pages       int
	New         int
	Overwritten int
	Resumed     bool
	Progress    *types.ProgressState
}

// Records returns the accumulated records in encounter order.
func (r *Result) Records() []types.Record {
	if r == nil || r.Progress == nil {
		return nil
	}
	return r.Progress.Ordered()
}

// Run harvests every source in order into one collection. It returns when
// all sources reported their last page, on the first error, or when ctx is
// cancelled. Progress persisted before an error is kept in the store; the
// returned Result reflects it either way.
func (h *Harvester) Run(ctx context.Context, sources ...Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to harvest")
	}
	if h.Store == nil {
		return nil, fmt.Errorf("no checkpoint store configured")
	}
	runID := h.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	name := sources[0].Name()
	state, resumed, err := h.loadState(ctx, runID, name)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    runID,
		State:    StateFetching,
		Resumed:  resumed,
		Progress: state,
	}

	h.Logger.Info().
		Str("run_id", runID).
		Str("source", name).
		Str("checkpoint", h.Store.Describe()).
		Bool("resumed", resumed).
		Int("records", state.Len()).
		Int("queries", len(sources)).
		Msg("Starting harvest")

	for i, src := range sources {
		if src.Name() != name {
			return res, fmt.Errorf("%w: cannot mix %q and %q in one run", ErrSourceMismatch, name, src.Name())
		}
		if err := h.harvestQuery(ctx, src, state, res, i == len(sources)-1); err != nil {
			return res, err
		}
	}

	res.State = StateDone
	h.Logger.Info().
		Str("run_id", runID).
		Int("pages", res.Pages).
		Int("records", state.Len()).
		Int("new", res.New).
		Int("overwritten", res.Overwritten).
		Msg("Harvest complete")
	return res, nil
}

// loadState returns the stored state when resuming, or a fresh one.
func (h *Harvester) loadState(ctx context.Context, runID, source string) (*types.ProgressState, bool, error) {
	if h.Resume {
		state, err := h.Store.Load(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("loading progress: %w", err)
		}
		if state != nil {
			if state.Source != "" && state.Source != source {
				return nil, false, fmt.Errorf("%w: stored %q, running %q", ErrSourceMismatch, state.Source, source)
			}
			return state, true, nil
		}
	}
	return types.NewProgressState(runID, source), false, nil
}

func (h *Harvester) harvestQuery(ctx context.Context, src Source, state *types.ProgressState, res *Result, last bool) error {
	query := src.Query()
	logger := h.Logger.With().Str("query", query).Logger()

	if state.QueryCompleted(query) {
		logger.Info().Msg("Skipping already harvested query")
		if last && !state.Complete {
			state.Complete = true
			return h.save(ctx, state)
		}
		return nil
	}

	token := src.InitialToken()
	switch {
	case state.Query == query && state.ResumptionToken != nil:
		token = state.Token()
		logger.Info().Str("token", token).Msg("Resuming query from checkpoint")
	case state.Query != "" && state.Query != query:
		logger.Warn().Str("abandoned_query", state.Query).Msg("Stored query is not part of this run; starting fresh")
	}
	state.Query = query
	state.Complete = false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageNum := res.Pages + 1
		page, err := src.FetchPage(ctx, token)
		if err != nil {
			logger.Error().Err(err).Int("page", pageNum).Str("token", token).Msg("Page fetch failed")
			return fmt.Errorf("%s page %d (token %q): %w", src.Name(), pageNum, token, err)
		}
		if err := validatePage(page, token); err != nil {
			logger.Error().Err(err).Int("page", pageNum).Str("token", token).Msg("Rejected page")
			return fmt.Errorf("%s page %d (token %q): %w", src.Name(), pageNum, token, err)
		}

		newCount := 0
		for _, r := range page.Records {
			if state.Upsert(r) {
				newCount++
			}
		}
		overwritten := len(page.Records) - newCount

		done := page.NextToken == "" || len(page.Records) == 0
		if done {
			state.SetToken("")
			state.Query = ""
			state.CompletedQueries = append(state.CompletedQueries, query)
			state.Complete = last
		} else {
			state.SetToken(page.NextToken)
		}
		state.Pages++

		if err := h.save(ctx, state); err != nil {
			return err
		}

		res.Pages++
		res.New += newCount
		res.Overwritten += overwritten
		metrics.PagesTotal.WithLabelValues(src.Name()).Inc()
		metrics.RecordsTotal.WithLabelValues(src.Name(), "new").Add(float64(newCount))
		metrics.RecordsTotal.WithLabelValues(src.Name(), "overwritten").Add(float64(overwritten))

		logger.Info().
			Int("page", pageNum).
			Int("fetched", len(page.Records)).
			Int("new", newCount).
			Int("total", state.Len()).
			Bool("last", done).
			Msg("Saved page")

		if err := h.sleep(ctx); err != nil {
			return err
		}
		if done {
			return nil
		}
		token = page.NextToken
	}
}

// validatePage rejects pages that cannot be applied without breaking the
// identifier or token invariants.
func validatePage(page Page, token string) error {
	if page.NextToken != "" && page.NextToken == token {
		return ErrTokenNotAdvanced
	}
	for i, r := range page.Records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has no identifier", ErrMalformedResponse, i)
		}
	}
	return nil
}

func (h *Harvester) save(ctx context.Context, state *types.ProgressState) error {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	state.UpdatedAt = now().UTC()
	if err := h.Store.Save(ctx, state); err != nil {
		return fmt.Errorf("checkpointing after page %d: %w", state.Pages, err)
	}
	return nil
}

func (h *Harvester) sleep(ctx context.Context) error {
	if h.Sleep != nil {
		return h.Sleep(ctx, h.Delay)
	}
	return SleepContext(ctx, h.Delay)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
