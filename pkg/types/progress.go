// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProgressState is the checkpoint persisted after every page. It carries
// the token to resume from and everything accumulated so far.
type ProgressState struct {
	// RunID identifies the harvest run that created this state.
	RunID string `json:"run_id"`

	// Source is the API the state belongs to (e.g. "openalex").
	Source string `json:"source"`

	// Query is the descriptor of the query ResumptionToken belongs to.
	Query string `json:"query,omitempty"`

	// ResumptionToken is the next token to fetch for Query. Nil when no
	// query is in flight.
	ResumptionToken *string `json:"resumption_token"`

	// Records maps identifier to record.
	Records map[string]Record `json:"records"`

	// Order lists identifiers in first-encounter order.
	Order []string `json:"order"`

	// CompletedQueries lists query descriptors already fully harvested.
	CompletedQueries []string `json:"completed_queries,omitempty"`

	// Pages counts pages applied across all runs sharing this state.
	Pages int `json:"pages"`

	// Complete is set once every requested query reached its last page.
	Complete bool `json:"complete"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewProgressState returns an empty state for source.
func NewProgressState(runID, source string) *ProgressState {
	return &ProgressState{
		RunID:   runID,
		Source:  source,
		Records: make(map[string]Record),
	}
}

// Upsert inserts r or overwrites the record with the same ID. An
// overwritten record keeps its original position in Order. It reports
// whether the ID was new.
func (s *ProgressState) Upsert(r Record) bool {
	if s.Records == nil {
		s.Records = make(map[string]Record)
	}
	_, exists := s.Records[r.ID]
	s.Records[r.ID] = r
	if !exists {
		s.Order = append(s.Order, r.ID)
	}
	return !exists
}

// Ordered returns the accumulated records in first-encounter order.
func (s *ProgressState) Ordered() []Record {
	out := make([]Record, 0, len(s.Order))
	for _, id := range s.Order {
		if r, ok := s.Records[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Token returns the resumption token, or "" when none is set.
func (s *ProgressState) Token() string {
	if s.ResumptionToken == nil {
		return ""
	}
	return *s.ResumptionToken
}

// SetToken stores tok as the resumption token; an empty tok clears it.
func (s *ProgressState) SetToken(tok string) {
	if tok == "" {
		s.ResumptionToken = nil
		return
	}
	s.ResumptionToken = &tok
}

// QueryCompleted reports whether query is in CompletedQueries.
func (s *ProgressState) QueryCompleted(query string) bool {
	for _, q := range s.CompletedQueries {
		if q == query {
			return true
		}
	}
	return false
}

// Len returns the number of unique records.
func (s *ProgressState) Len() int {
	return len(s.Records)
}
