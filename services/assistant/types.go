// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assistant implements the conversational government-information
// assistant: query categorization, contact extraction, the bounded agent
// loop that chooses between the directory registry and external research
// tools, and the degraded-mode fallback responder.
package assistant

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// maxContactIDLength bounds the deterministic contact identifier.
const maxContactIDLength = 64

// DepartmentContact is a government contact returned to the caller.
//
// Description:
//
//	Contacts are either drawn verbatim from the directory registry
//	(authoritative) or synthesized from a search result (best effort).
//	Fields that could not be extracted hold the literal placeholder
//	"Contact via website" rather than an empty string, so callers never
//	special-case blank fields. Contacts are scoped to one query and never
//	persisted.
type DepartmentContact struct {
	// ID is derived deterministically from Name via ContactID, so repeated
	// extraction of the same entity yields the same id within a response.
	ID string `json:"id"`

	// Name is the department or office name.
	Name string `json:"name"`

	// Phone is the contact phone number or the placeholder.
	Phone string `json:"phone"`

	// Email is the contact email or the placeholder.
	Email string `json:"email"`

	// Website is the department website.
	Website string `json:"website"`

	// Address is the physical address, when known.
	Address string `json:"address"`

	// Services lists the services this contact covers.
	Services []string `json:"services"`

	// Source is the URL the contact was extracted from, empty for
	// registry and static fallback contacts.
	Source string `json:"source,omitempty"`
}

// AggregatedResult is the query facade's normalized output.
type AggregatedResult struct {
	// Response is the final answer text. Never empty: degraded paths fill
	// it with a best-effort or last-resort message.
	Response string `json:"response"`

	// SearchResults holds the raw external results gathered for this query.
	SearchResults []webintel.SearchResult `json:"searchResults"`

	// DepartmentContacts holds extracted and registry contacts.
	DepartmentContacts []DepartmentContact `json:"departmentContacts"`

	// Sources is the set-union of every result URL seen during the
	// invocation: first-appearance order, exact-string deduplication.
	Sources []string `json:"sources"`

	// SessionID identifies the conversation this turn belongs to.
	SessionID string `json:"sessionId"`
}

// ContactID derives a stable identifier from a contact name.
//
// Description:
//
//	Lowercases the name, maps spaces to underscores, strips every other
//	non-alphanumeric rune, and truncates to 64 bytes. Deterministic, so the
//	same entity extracted twice in one response deduplicates by id.
//
// Thread Safety: This function is safe for concurrent use.
func ContactID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	id := b.String()
	if len(id) > maxContactIDLength {
		// Back up to a rune start so a multibyte name never truncates
		// into invalid UTF-8.
		cut := maxContactIDLength
		for cut > 0 && !utf8.RuneStart(id[cut]) {
			cut--
		}
		id = id[:cut]
	}
	return id
}

// dedupeSources returns the set-union of URLs across the given results,
// preserving first-appearance order and comparing by exact string equality.
func dedupeSources(results []webintel.SearchResult, extra ...string) []string {
	seen := make(map[string]struct{}, len(results)+len(extra))
	sources := make([]string, 0, len(results)+len(extra))

	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		sources = append(sources, u)
	}

	for _, r := range results {
		add(r.URL)
	}
	for _, u := range extra {
		add(u)
	}
	return sources
}
