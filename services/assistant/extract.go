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
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// ContactPlaceholder fills phone/email fields that could not be extracted.
// A deliberate UX contract: callers never have to special-case blank fields.
const ContactPlaceholder = "Contact via website"

// Extraction heuristics. Best-effort regex scans, kept behind ExtractContact
// so they can be swapped for a structured parser without touching the
// orchestrator or the facade.
var (
	// phonePattern matches international numbers: +<country code> followed
	// by at least six digits with common separators.
	phonePattern = regexp.MustCompile(`\+\d{1,3}[\d\s\-()]{6,}\d`)

	// emailPattern is RFC-5322-lite: local@domain.tld.
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// ExtractContact synthesizes a DepartmentContact from a search result.
//
// Description:
//
//	Runs two independent regex scans (international phone, email) over the
//	result's Content, falling back to Snippet when Content is absent. The
//	contact name is the result title, annotated with "(<keyword> services)"
//	when the title does not already mention the category's primary keyword.
//	Missing phone/email become ContactPlaceholder.
//
//	An extraction miss is not an error. This function never panics and
//	never propagates a failure: any unusable input yields nil.
//
// Inputs:
//   - result: The search result to scan. Zero-value results yield nil.
//   - category: The category guiding annotation. May be nil.
//
// Outputs:
//   - *DepartmentContact: The synthesized contact, or nil when the result
//     has no title and no scannable text.
//
// Thread Safety: This function is safe for concurrent use.
func ExtractContact(result webintel.SearchResult, category *ServiceCategory) *DepartmentContact {
	text := result.Content
	if text == "" {
		text = result.Snippet
	}
	if text == "" && result.Title == "" {
		return nil
	}

	name := strings.TrimSpace(result.Title)
	if name == "" {
		name = "Government Office"
	}

	var services []string
	if category != nil {
		primary := category.PrimaryKeyword()
		if !strings.Contains(strings.ToLower(name), strings.ToLower(primary)) {
			name = name + " (" + primary + " services)"
		}
		services = append(services, category.Keywords...)
	}

	phone := ContactPlaceholder
	if m := phonePattern.FindString(text); m != "" {
		phone = strings.TrimSpace(m)
	}

	email := ContactPlaceholder
	if m := emailPattern.FindString(text); m != "" {
		email = m
	}

	return &DepartmentContact{
		ID:       ContactID(name),
		Name:     name,
		Phone:    phone,
		Email:    email,
		Website:  result.URL,
		Address:  "",
		Services: services,
		Source:   result.URL,
	}
}
