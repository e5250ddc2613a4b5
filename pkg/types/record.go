// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for citation-harvester:
// harvested records, checkpoint progress state, and stage configuration.
package types

// Source names stamped on records.
const (
	SourceOpenAlex = "openalex"
	SourcePMC      = "pmc"
	SourcePubMed   = "pubmed"
)

// Record is the locally stored metadata for one fetched article.
// Records are keyed by ID; a later fetch of the same ID replaces the
// earlier one.
type Record struct {
	// ID is the identifier issued by the source (OpenAlex work URL,
	// PMC or PubMed UID).
	ID string `json:"id" yaml:"id"`

	// Title is the article title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// PublicationYear is zero when the source did not report one.
	PublicationYear int `json:"publication_year" yaml:"publication_year"`

	// CitedByCount is zero for sources that do not report citations
	// (NCBI E-utilities).
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// Authors lists the article authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// DOI is the bare DOI without the https://doi.org/ prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Source identifies which API produced the record.
	Source string `json:"source" yaml:"source"`

	// NormalizedCitationScore is derived by the analysis stage and is
	// never set by a fetch.
	NormalizedCitationScore *float64 `json:"normalized_citation_score,omitempty" yaml:"normalized_citation_score,omitempty"`
}

// Author is one entry of a record's author list.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
}

// FirstAuthor returns the first author's name, or "Unknown".
func (r Record) FirstAuthor() string {
	if len(r.Authors) == 0 || r.Authors[0].Name == "" {
		return "Unknown"
	}
	return r.Authors[0].Name
}
