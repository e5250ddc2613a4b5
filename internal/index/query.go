// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

// QueryOptions holds filters for Query. Zero values disable a filter.
type QueryOptions struct {
	// Text is an FTS4 match expression over titles.
	Text string

	// YearFrom and YearTo bound the publication year, inclusive.
	YearFrom int
	YearTo   int

	MinCitations int

	// Source filters by record source (openalex, pmc, pubmed).
	Source string

	// Limit caps the result count. Zero uses the store default.
	Limit int
}

// Query returns matching records ordered by citation count descending,
// then identifier.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT r.id, r.title, r.publication_year, r.cited_by_count, r.doi,
			r.source, r.authors, r.normalized_citation_score
		FROM records r`)
	if opts.Text != "" {
		qb.WriteString(` JOIN records_fts ON records_fts.docid = r.rowid WHERE records_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(` WHERE 1=1`)
	}

	if opts.YearFrom > 0 {
		qb.WriteString(` AND r.publication_year >= ?`)
		args = append(args, opts.YearFrom)
	}
	if opts.YearTo > 0 {
		qb.WriteString(` AND r.publication_year <= ?`)
		args = append(args, opts.YearTo)
	}
	if opts.MinCitations > 0 {
		qb.WriteString(` AND r.cited_by_count >= ?`)
		args = append(args, opts.MinCitations)
	}
	if opts.Source != "" {
		qb.WriteString(` AND r.source = ?`)
		args = append(args, opts.Source)
	}

	qb.WriteString(` ORDER BY r.cited_by_count DESC, r.id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []types.Record
	for rows.Next() {
		var (
			r           types.Record
			authorsJSON string
			score       sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ID, &r.Title, &r.PublicationYear, &r.CitedByCount, &r.DOI,
			&r.Source, &authorsJSON, &score,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors of %s: %w", r.ID, err)
		}
		if score.Valid {
			v := score.Float64
			r.NormalizedCitationScore = &v
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
