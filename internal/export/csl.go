// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes harvested records as a CSL-YAML bibliography that
// Pandoc and reference managers can consume.
package export

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form.
type CSLItem struct {
	ID     string    `yaml:"id"`
	Type   string    `yaml:"type"`
	Title  string    `yaml:"title"`
	Author []CSLName `yaml:"author,omitempty"`
	Issued *CSLDate  `yaml:"issued,omitempty"`
	DOI    string    `yaml:"DOI,omitempty"`
	URL    string    `yaml:"URL,omitempty"`
	PMCID  string    `yaml:"PMCID,omitempty"`
	PMID   string    `yaml:"PMID,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a CSL date with year-only date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes records as a CSL-YAML list to w.
func FormatCSL(records []types.Record, w io.Writer) error {
	items := make([]CSLItem, len(records))
	for i, r := range records {
		items[i] = ToCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a record to a journal article entry.
func ToCSLItem(r types.Record) CSLItem {
	item := CSLItem{
		Type:  "article-journal",
		Title: r.Title,
		DOI:   r.DOI,
	}

	switch r.Source {
	case types.SourceOpenAlex:
		item.ID = strings.TrimPrefix(r.ID, "https://openalex.org/")
		item.URL = r.ID
	case types.SourcePMC:
		item.ID = "PMC" + r.ID
		item.PMCID = item.ID
	case types.SourcePubMed:
		item.ID = "PMID" + r.ID
		item.PMID = r.ID
	default:
		item.ID = r.ID
	}

	for _, a := range r.Authors {
		var n CSLName
		if r.Source == types.SourcePMC || r.Source == types.SourcePubMed {
			n = parseNCBIName(a.Name)
		} else {
			n = parseAuthorName(a.Name)
		}
		if n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}

	if r.PublicationYear > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{r.PublicationYear}}}
	}
	return item
}

// parseAuthorName splits a display name on its last space: everything
// before is given, the last token is family. Single-token names use the
// literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

// parseNCBIName splits an NCBI summary name ("Smith JA") into family and
// initials.
func parseNCBIName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Family: name[:idx],
		Given:  name[idx+1:],
	}
}
