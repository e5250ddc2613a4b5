// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries NCBI E-utilities (esearch, esummary, efetch) for
// PubMed and PubMed Central.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
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

const (
	// DefaultBaseURL is the E-utilities root.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

	// DefaultTool identifies this client to NCBI.
	DefaultTool = "pmc_ml_med_search"

	// DefaultDB is PubMed Central.
	DefaultDB = "pmc"
)

// Client calls E-utilities with the identification NCBI requires on every
// request.
type Client struct {
	HTTP *http.Client

	// Email is required by NCBI usage policy.
	Email string
	// APIKey raises the rate limit from 3 to 10 requests per second.
	APIKey string
	Tool   string

	// BaseURL defaults to DefaultBaseURL. Must end with a slash.
	BaseURL string

	UserAgent string
	Retry429  int
}

// SearchResult is the esearch payload.
type SearchResult struct {
	Count    int
	IDs      []string
	WebEnv   string
	QueryKey string
}

func (c *Client) commonParams() url.Values {
	tool := c.Tool
	if tool == "" {
		tool = DefaultTool
	}
	v := url.Values{
		"email":   {c.Email},
		"tool":    {tool},
		"retmode": {"json"},
	}
	if c.APIKey != "" {
		v.Set("api_key", c.APIKey)
	}
	return v
}

func (c *Client) endpoint(name string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}

// get issues a GET against an E-utility and returns the response body.
func (c *Client) get(ctx context.Context, utility string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(utility)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, client, req, c.Retry429)
	if err != nil {
		metrics.ObserveRequest(types.SourcePubMed, 0, time.Since(start))
		return nil, fmt.Errorf("%s request: %w", utility, err)
	}
	defer resp.Body.Close()
	metrics.ObserveRequest(types.SourcePubMed, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", utility, err)
	}
	return body, nil
}

// Search runs esearch for term and returns up to retmax IDs starting at
// retstart. The history server is requested so WebEnv and QueryKey come
// back with the result.
func (c *Client) Search(ctx context.Context, db, term string, retstart, retmax int) (*SearchResult, error) {
	params := c.commonParams()
	params.Set("db", db)
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(retmax))
	params.Set("retstart", strconv.Itoa(retstart))
	params.Set("usehistory", "y")

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var sr esearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: parsing esearch response: %v", harvest.ErrMalformedResponse, err)
	}
	if sr.Result == nil || sr.Result.Count == nil {
		return nil, fmt.Errorf("%w: esearch response has no count", harvest.ErrMalformedResponse)
	}
	count, err := strconv.Atoi(*sr.Result.Count)
	if err != nil {
		return nil, fmt.Errorf("%w: esearch count %q: %v", harvest.ErrMalformedResponse, *sr.Result.Count, err)
	}

	return &SearchResult{
		Count:    count,
		IDs:      sr.Result.IDList,
		WebEnv:   sr.Result.WebEnv,
		QueryKey: sr.Result.QueryKey,
	}, nil
}

// Summaries runs esummary for ids and returns one record per returned uid,
// in the order NCBI lists them.
func (c *Client) Summaries(ctx context.Context, db string, ids []string) ([]types.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := c.commonParams()
	params.Set("db", db)
	params.Set("id", strings.Join(ids, ","))

	body, err := c.get(ctx, "esummary.fcgi", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing esummary response: %v", harvest.ErrMalformedResponse, err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: esummary response has no result", harvest.ErrMalformedResponse)
	}

	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("%w: esummary uids: %v", harvest.ErrMalformedResponse, err)
		}
	} else {
		uids = ids
	}

	source := types.SourcePMC
	if db == "pubmed" {
		source = types.SourcePubMed
	}

	records := make([]types.Record, 0, len(uids))
	for _, uid := range uids {
		raw, ok := resp.Result[uid]
		if !ok {
			continue
		}
		var doc summaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: esummary uid %s: %v", harvest.ErrMalformedResponse, uid, err)
		}
		if doc.Error != "" {
			continue
		}
		records = append(records, doc.toRecord(uid, source))
	}
	return records, nil
}

// MeSHQuery joins terms as MeSH-qualified clauses with operator (AND when
// empty).
func MeSHQuery(terms []string, operator string) string {
	if operator == "" {
		operator = "AND"
	}
	clauses := make([]string, len(terms))
	for i, t := range terms {
		clauses[i] = fmt.Sprintf("%q[mesh]", t)
	}
	return strings.Join(clauses, " "+strings.ToUpper(operator)+" ")
}

// E-utilities JSON structures.
type esearchResponse struct {
	Result *struct {
		Count    *string  `json:"count"`
		IDList   []string `json:"idlist"`
		WebEnv   string   `json:"webenv"`
		QueryKey string   `json:"querykey"`
	} `json:"esearchresult"`
}

type summaryDoc struct {
	UID        string          `json:"uid"`
	Title      string          `json:"title"`
	PubDate    string          `json:"pubdate"`
	EPubDate   string          `json:"epubdate"`
	Error      string          `json:"error"`
	Authors    []summaryAuthor `json:"authors"`
	ArticleIDs []articleID     `json:"articleids"`
}

type summaryAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

type articleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

func (d summaryDoc) toRecord(uid, source string) types.Record {
	r := types.Record{
		ID:              uid,
		Title:           d.Title,
		PublicationYear: parseYear(d.PubDate),
		Source:          source,
		Authors:         make([]types.Author, 0, len(d.Authors)),
	}
	if r.PublicationYear == 0 {
		r.PublicationYear = parseYear(d.EPubDate)
	}
	for _, a := range d.Authors {
		if a.AuthType != "" && a.AuthType != "Author" {
			continue
		}
		r.Authors = append(r.Authors, types.Author{Name: a.Name})
	}
	for _, id := range d.ArticleIDs {
		if strings.EqualFold(id.IDType, "doi") {
			r.DOI = id.Value
			break
		}
	}
	return r
}

// parseYear reads the leading four-digit year of an NCBI date such as
// "2019 Mar 5". It returns 0 when there is none.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
