// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex pages through the OpenAlex Works API with cursor
// pagination.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/internal/httputil"
	"github.com/pdiddy/citation-harvester/internal/metrics"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// worksBase is the OpenAlex Works endpoint. Declared as a var so tests can
// substitute an httptest server.
var worksBase = "https://api.openalex.org/works"

const (
	// DefaultFilter selects works tagged with both the Medicine and the
	// Artificial Intelligence concepts.
	DefaultFilter = "concepts.id:C71924100,concepts.id:C119857082"

	// MaxPerPage is the largest page size OpenAlex accepts.
	MaxPerPage = 200

	// initialCursor starts cursor pagination.
	initialCursor = "*"
)

// Source is a harvest.Source over one OpenAlex filter/search.
type Source struct {
	Client *http.Client
	// BaseURL overrides the Works endpoint, e.g. for a local mirror.
	BaseURL string
	Filter string
	Search string
	// PerPage is clamped to 1..MaxPerPage; zero means MaxPerPage.
	PerPage int
	// Email is sent as mailto for polite pool access.
	Email     string
	UserAgent string
	// Retry429 enables retries on HTTP 429; zero sends each request once.
	Retry429 int
}

// Name returns the source identifier.
func (s *Source) Name() string { return types.SourceOpenAlex }

// Query describes the filter and search so a resumed run can tell whether
// its checkpoint belongs to the same query.
func (s *Source) Query() string {
	var parts []string
	if s.Filter != "" {
		parts = append(parts, "filter="+s.Filter)
	}
	if s.Search != "" {
		parts = append(parts, "search="+s.Search)
	}
	return strings.Join(parts, "&")
}

// InitialToken returns the cursor that starts pagination.
func (s *Source) InitialToken() string { return initialCursor }

func (s *Source) perPage() int {
	switch {
	case s.PerPage <= 0:
		return MaxPerPage
	case s.PerPage > MaxPerPage:
		return MaxPerPage
	default:
		return s.PerPage
	}
}

// FetchPage requests the page at cursor and maps its works to records.
func (s *Source) FetchPage(ctx context.Context, cursor string) (harvest.Page, error) {
	params := url.Values{
		"per-page": {strconv.Itoa(s.perPage())},
		"cursor":   {cursor},
	}
	if s.Filter != "" {
		params.Set("filter", s.Filter)
	}
	if s.Search != "" {
		params.Set("search", s.Search)
	}
	if s.Email != "" {
		params.Set("mailto", s.Email)
	}

	base := s.BaseURL
	if base == "" {
		base = worksBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return harvest.Page{}, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.Retry429)
	if err != nil {
		metrics.ObserveRequest(types.SourceOpenAlex, 0, time.Since(start))
		return harvest.Page{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveRequest(types.SourceOpenAlex, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp); err != nil {
		return harvest.Page{}, err
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return harvest.Page{}, fmt.Errorf("%w: parsing OpenAlex response: %v", harvest.ErrMalformedResponse, err)
	}
	if wr.Meta == nil {
		return harvest.Page{}, fmt.Errorf("%w: OpenAlex response has no meta", harvest.ErrMalformedResponse)
	}
	if wr.Results == nil {
		return harvest.Page{}, fmt.Errorf("%w: OpenAlex response has no results", harvest.ErrMalformedResponse)
	}

	records := make([]types.Record, 0, len(*wr.Results))
	for i, w := range *wr.Results {
		if w.ID == "" {
			return harvest.Page{}, fmt.Errorf("%w: OpenAlex work %d has no id", harvest.ErrMalformedResponse, i)
		}
		records = append(records, toRecord(w))
	}

	next := ""
	if wr.Meta.NextCursor != nil {
		next = *wr.Meta.NextCursor
	}
	return harvest.Page{Records: records, NextToken: next}, nil
}

// toRecord maps an OpenAlex work to a Record.
func toRecord(w work) types.Record {
	r := types.Record{
		ID:              w.ID,
		Title:           w.Title,
		PublicationYear: w.PublicationYear,
		CitedByCount:    w.CitedByCount,
		DOI:             strings.TrimPrefix(w.DOI, "https://doi.org/"),
		Source:          types.SourceOpenAlex,
		Authors:         make([]types.Author, 0, len(w.Authorships)),
	}
	if r.Title == "" {
		r.Title = w.DisplayName
	}
	for _, a := range w.Authorships {
		r.Authors = append(r.Authors, types.Author{
			Name:  a.Author.DisplayName,
			ID:    a.Author.ID,
			ORCID: a.Author.ORCID,
		})
	}
	return r
}

// OpenAlex API JSON structures. Pointers distinguish a missing key from an
// empty value.
type worksResponse struct {
	Meta    *meta   `json:"meta"`
	Results *[]work `json:"results"`
}

type meta struct {
	Count      int     `json:"count"`
	PerPage    int     `json:"per_page"`
	NextCursor *string `json:"next_cursor"`
}

type work struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	DOI             string       `json:"doi"`
	PublicationYear int          `json:"publication_year"`
	CitedByCount    int          `json:"cited_by_count"`
	Authorships     []authorship `json:"authorships"`
}

type authorship struct {
	Author author `json:"author"`
}

type author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}
