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
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// apologyResponse is the last line of defense: a static answer used when
// even the single direct completion fails. It must stand on its own with
// no model in the loop.
const apologyResponse = `I apologize, I was unable to fully process your request right now.

For help with any government service, please contact the Government Information Center:
- Hotline: 1919 (available island-wide)
- Website: https://www.gov.lk

You can also try asking your question again in a moment.`

// FallbackResponder produces a best-effort answer when the agent loop
// cannot.
//
// Description:
//
//	Used on budget exhaustion and on LLM transport failure. It makes at
//	most ONE direct completion call (no tools, no loop) to phrase the
//	already-gathered contacts and search results into a helpful answer.
//	If that call also fails, it returns the static apology. Respond never
//	returns an error; a degraded answer is still an answer.
type FallbackResponder struct {
	client llm.ChatClient
	logger *slog.Logger
}

// NewFallbackResponder creates a FallbackResponder.
func NewFallbackResponder(client llm.ChatClient, logger *slog.Logger) *FallbackResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackResponder{client: client, logger: logger}
}

// Respond builds a degraded answer from whatever discovery gathered.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - query: The original citizen query.
//   - contacts: Department contacts from discovery (possibly fallback
//     taxonomy entries). May be empty.
//   - results: Raw external search results from discovery. May be empty.
//
// Outputs:
//   - string: A non-empty answer, always. On a successful completion the
//     answer is the contact bullets, the deduplicated source bullets, and
//     the model's guidance concatenated in that order, so the gathered
//     material reaches the citizen even when the model does not repeat it.
func (f *FallbackResponder) Respond(ctx context.Context, query string, contacts []DepartmentContact, results []webintel.SearchResult) string {
	var completion string
	if f.client != nil {
		answer, err := f.client.Chat(ctx, []llm.Message{
			{Role: "user", Content: f.buildPrompt(query, contacts, results)},
		}, llm.GenerationParams{})
		if err != nil {
			f.logger.Warn("fallback completion failed, using static apology",
				slog.String("error", err.Error()),
			)
		} else {
			completion = strings.TrimSpace(answer)
		}
	}

	if completion == "" {
		fallbackTotal.WithLabelValues("apology").Inc()
		return apologyResponse
	}

	return composeDegradedAnswer(contacts, results, completion)
}

// composeDegradedAnswer concatenates the guaranteed sections with the
// model's guidance. The bullets are rendered here, not by the model, so
// they cannot be dropped from the response.
func composeDegradedAnswer(contacts []DepartmentContact, results []webintel.SearchResult, completion string) string {
	var b strings.Builder

	if len(contacts) > 0 {
		b.WriteString("Relevant department contacts:\n")
		for _, c := range contacts {
			writeContactBullet(&b, c)
		}
		b.WriteString("\n")
	}

	if sources := dedupeSources(results); len(sources) > 0 {
		b.WriteString("Sources:\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString(completion)
	return b.String()
}

// writeContactBullet renders one contact as a single bullet line.
func writeContactBullet(b *strings.Builder, c DepartmentContact) {
	fmt.Fprintf(b, "- %s", c.Name)
	if c.Phone != "" {
		fmt.Fprintf(b, " | Phone: %s", c.Phone)
	}
	if c.Email != "" {
		fmt.Fprintf(b, " | Email: %s", c.Email)
	}
	if c.Website != "" {
		fmt.Fprintf(b, " | Website: %s", c.Website)
	}
	b.WriteString("\n")
}

// buildPrompt flattens the gathered material into a single completion
// prompt. Contacts become labeled bullets; sources are deduped in
// first-seen order.
func (f *FallbackResponder) buildPrompt(query string, contacts []DepartmentContact, results []webintel.SearchResult) string {
	var b strings.Builder

	b.WriteString("A citizen asked a government-services question, but the full assistant pipeline ")
	b.WriteString("was unable to complete. Compose a short, helpful answer from ONLY the material ")
	b.WriteString("below. Do not invent any contact details. If external web sources appear, say ")
	b.WriteString("the information is unverified.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", query)

	if len(contacts) > 0 {
		b.WriteString("\nKnown department contacts:\n")
		for _, c := range contacts {
			writeContactBullet(&b, c)
		}
	}

	if len(results) > 0 {
		b.WriteString("\nExternal web findings (unverified):\n")
		for _, r := range results {
			snippet := r.Snippet
			if snippet == "" && len(r.Content) > 0 {
				snippet = r.Content
				if len(snippet) > 200 {
					snippet = snippet[:200]
				}
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, snippet)
		}
	}

	if sources := dedupeSources(results); len(sources) > 0 {
		b.WriteString("\nSource links:\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	return b.String()
}
