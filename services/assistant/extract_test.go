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
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/AleutianAI/AleutianGov/services/webintel"
)

func immigrationCategory() *ServiceCategory {
	return &ServiceCategory{
		Name:        "immigration",
		Keywords:    []string{"passport", "visa"},
		SearchTerms: []string{"Department of Immigration contact"},
	}
}

func TestExtractContactFull(t *testing.T) {
	result := webintel.SearchResult{
		URL:     "https://www.immigration.gov.lk/contact",
		Title:   "Department of Immigration and Emigration",
		Content: "Reach us at +94 112 101 500 or controller@immigration.gov.lk during office hours.",
	}

	contact := ExtractContact(result, immigrationCategory())
	if contact == nil {
		t.Fatal("expected a contact")
	}

	if contact.Phone != "+94 112 101 500" {
		t.Errorf("phone = %q", contact.Phone)
	}
	if contact.Email != "controller@immigration.gov.lk" {
		t.Errorf("email = %q", contact.Email)
	}
	if contact.Website != result.URL {
		t.Errorf("website = %q", contact.Website)
	}
	if contact.Source != result.URL {
		t.Errorf("source = %q", contact.Source)
	}
	if contact.ID != ContactID(contact.Name) {
		t.Errorf("id %q does not match ContactID(%q)", contact.ID, contact.Name)
	}
}

func TestExtractContactPlaceholders(t *testing.T) {
	result := webintel.SearchResult{
		URL:     "https://example.gov.lk",
		Title:   "Passport Office Colombo",
		Content: "Office hours are 9am to 4pm on weekdays.",
	}

	contact := ExtractContact(result, immigrationCategory())
	if contact == nil {
		t.Fatal("expected a contact")
	}
	if contact.Phone != ContactPlaceholder {
		t.Errorf("phone = %q, want placeholder", contact.Phone)
	}
	if contact.Email != ContactPlaceholder {
		t.Errorf("email = %q, want placeholder", contact.Email)
	}
}

func TestExtractContactNameAnnotation(t *testing.T) {
	t.Run("title lacks primary keyword", func(t *testing.T) {
		contact := ExtractContact(webintel.SearchResult{
			Title:   "Suhurupaya Office",
			Content: "some text",
		}, immigrationCategory())
		if contact == nil {
			t.Fatal("expected a contact")
		}
		if contact.Name != "Suhurupaya Office (passport services)" {
			t.Errorf("name = %q", contact.Name)
		}
	})

	t.Run("title already mentions keyword", func(t *testing.T) {
		contact := ExtractContact(webintel.SearchResult{
			Title:   "Passport Office Colombo",
			Content: "some text",
		}, immigrationCategory())
		if contact == nil {
			t.Fatal("expected a contact")
		}
		if contact.Name != "Passport Office Colombo" {
			t.Errorf("name = %q, annotation should be skipped", contact.Name)
		}
	})
}

func TestExtractContactFallsBackToSnippet(t *testing.T) {
	contact := ExtractContact(webintel.SearchResult{
		Title:   "Registrar General",
		Snippet: "call +94 115 566 556",
	}, nil)
	if contact == nil {
		t.Fatal("expected a contact")
	}
	if contact.Phone != "+94 115 566 556" {
		t.Errorf("phone = %q", contact.Phone)
	}
	if len(contact.Services) != 0 {
		t.Errorf("services should be empty without a category, got %v", contact.Services)
	}
}

func TestExtractContactUnusableResult(t *testing.T) {
	if got := ExtractContact(webintel.SearchResult{URL: "https://x.lk"}, nil); got != nil {
		t.Errorf("expected nil for a result with no title and no text, got %+v", got)
	}
	if got := ExtractContact(webintel.SearchResult{}, nil); got != nil {
		t.Errorf("expected nil for a zero-value result, got %+v", got)
	}
}

func TestExtractContactUntitled(t *testing.T) {
	contact := ExtractContact(webintel.SearchResult{
		Content: "write to info@gov.lk",
	}, nil)
	if contact == nil {
		t.Fatal("expected a contact")
	}
	if contact.Name != "Government Office" {
		t.Errorf("name = %q, want default", contact.Name)
	}
	if contact.Email != "info@gov.lk" {
		t.Errorf("email = %q", contact.Email)
	}
}

func TestContactID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Department of Immigration", "department_of_immigration"},
		{"Inland Revenue (Head Office)", "inland_revenue_head_office"},
		{"ALL CAPS", "all_caps"},
	}
	for _, tt := range tests {
		if got := ContactID(tt.in); got != tt.want {
			t.Errorf("ContactID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := ContactID("a very long department name that keeps going and going and going far past the limit")
	if len(long) > maxContactIDLength {
		t.Errorf("id length %d exceeds %d", len(long), maxContactIDLength)
	}
}

func TestContactIDMultibyteTruncation(t *testing.T) {
	// Sinhala department names are three bytes per rune; the length cap
	// must land on a rune boundary, not mid-sequence.
	id := ContactID(strings.Repeat("ක", 30))
	if len(id) > maxContactIDLength {
		t.Fatalf("id length %d exceeds %d", len(id), maxContactIDLength)
	}
	if !utf8.ValidString(id) {
		t.Errorf("truncated id is not valid UTF-8: %q", id)
	}
}
