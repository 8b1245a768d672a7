// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// maxSearchCalls caps external search fan-out per DiscoverContacts call.
//
// Each category configures up to three search terms, but only the first
// is issued: the web intelligence provider rate-limits aggressively and
// one well-targeted search term recovers a contact in the common case.
const maxSearchCalls = 1

// searchResultCap bounds how many results one discovery search requests.
const searchResultCap = 3

// Searcher is the slice of the web intelligence client discovery needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]webintel.SearchResult, error)
}

// Discovery runs categorization-driven contact discovery, independent of
// the agent loop. It is cheap and stateless, so the fallback path re-runs
// it freely.
//
// Thread Safety: Discovery is safe for concurrent use.
type Discovery struct {
	taxonomy *Taxonomy
	search   Searcher
	logger   *slog.Logger
}

// NewDiscovery creates a Discovery.
//
// Inputs:
//   - taxonomy: The loaded category taxonomy. Must not be nil.
//   - search: The external search capability. May be nil (fallback-only mode).
//   - logger: Logger for diagnostics. Nil uses slog.Default().
func NewDiscovery(taxonomy *Taxonomy, search Searcher, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{taxonomy: taxonomy, search: search, logger: logger}
}

// DiscoverContacts finds department contacts for a raw query.
//
// Description:
//
//	Categorizes the query, then issues at most maxSearchCalls external
//	searches using the category's configured search terms and extracts a
//	contact from each result. Three conditions route to the static
//	fallback table instead: categorization miss, search provider failure,
//	and zero extractable contacts. The returned contact list is NEVER
//	empty; the generic Government Information Center entry backstops
//	every path.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - query: The raw citizen query.
//
// Outputs:
//   - []DepartmentContact: At least one contact, always.
//   - []webintel.SearchResult: Raw results gathered (may be empty).
//
// Thread Safety: This method is safe for concurrent use.
func (d *Discovery) DiscoverContacts(ctx context.Context, query string) ([]DepartmentContact, []webintel.SearchResult) {
	category := d.taxonomy.Categorize(query)
	if category == nil {
		d.logger.Debug("discovery: no category matched, using fallback contacts",
			slog.String("query", redactedQuery(query)),
		)
		return d.taxonomy.FallbackContacts(query), nil
	}

	if d.search == nil {
		return d.taxonomy.FallbackContacts(query), nil
	}

	var (
		contacts []DepartmentContact
		results  []webintel.SearchResult
		seen     = make(map[string]struct{})
	)

	terms := category.SearchTerms
	if len(terms) > maxSearchCalls {
		terms = terms[:maxSearchCalls]
	}

	for _, term := range terms {
		found, err := d.search.Search(ctx, term, searchResultCap)
		if err != nil {
			d.logger.Warn("discovery: external search failed, using fallback contacts",
				slog.String("category", category.Name),
				slog.String("error", err.Error()),
			)
			return d.taxonomy.FallbackContacts(query), results
		}

		results = append(results, found...)
		for _, r := range found {
			contact := ExtractContact(r, category)
			if contact == nil {
				continue
			}
			if _, dup := seen[contact.ID]; dup {
				continue
			}
			seen[contact.ID] = struct{}{}
			contacts = append(contacts, *contact)
		}
	}

	if len(contacts) == 0 {
		return d.taxonomy.FallbackContacts(query), results
	}

	return contacts, results
}
