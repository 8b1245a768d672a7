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
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// chatRecorder captures the single direct completion the fallback makes.
type chatRecorder struct {
	answer string
	err    error
	prompt string
	calls  int
}

func (c *chatRecorder) Name() string { return "recorder" }

func (c *chatRecorder) Chat(_ context.Context, messages []llm.Message, _ llm.GenerationParams) (string, error) {
	c.calls++
	if len(messages) > 0 {
		c.prompt = messages[len(messages)-1].Content
	}
	return c.answer, c.err
}

func (c *chatRecorder) ChatWithTools(_ context.Context, _ []llm.ChatMessage, _ llm.GenerationParams, _ []llm.ToolDef) (*llm.ChatWithToolsResult, error) {
	return nil, errors.New("recorder: tools not supported")
}

func TestFallbackRespond(t *testing.T) {
	client := &chatRecorder{answer: "Here is what I could find."}
	f := NewFallbackResponder(client, nil)

	contacts := []DepartmentContact{
		{Name: "Inland Revenue Department", Phone: "+94 112 135 135", Website: "https://www.ird.gov.lk"},
	}
	results := []webintel.SearchResult{
		{URL: "https://a.gov.lk", Title: "Tax info", Snippet: "snippet one"},
		{URL: "https://a.gov.lk", Title: "Tax info again", Snippet: "duplicate url"},
		{URL: "https://b.gov.lk", Title: "More tax info", Snippet: "snippet two"},
	}

	answer := f.Respond(context.Background(), "how do I pay VAT", contacts, results)
	if !strings.HasSuffix(answer, "Here is what I could find.") {
		t.Fatalf("answer must end with the completion, got %q", answer)
	}
	if client.calls != 1 {
		t.Fatalf("fallback made %d completion calls, want exactly 1", client.calls)
	}

	// The contact and source bullets are part of the answer itself, in
	// that order, ahead of the completion.
	contactAt := strings.Index(answer, "- Inland Revenue Department")
	sourceAt := strings.Index(answer, "- https://b.gov.lk")
	completionAt := strings.Index(answer, "Here is what I could find.")
	if contactAt == -1 || sourceAt == -1 {
		t.Fatalf("answer missing rendered bullets: %q", answer)
	}
	if !(contactAt < sourceAt && sourceAt < completionAt) {
		t.Errorf("sections out of order: contact@%d source@%d completion@%d", contactAt, sourceAt, completionAt)
	}
	if strings.Count(answer, "- https://a.gov.lk") != 1 {
		t.Error("duplicate source URL not collapsed in answer")
	}

	// The prompt carries the contacts and the deduped source list.
	for _, want := range []string{
		"how do I pay VAT",
		"Inland Revenue Department",
		"+94 112 135 135",
		"https://www.ird.gov.lk",
		"unverified",
	} {
		if !strings.Contains(client.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Count(client.prompt, "- https://a.gov.lk") != 1 {
		t.Error("duplicate source URL not collapsed in prompt")
	}
}

func TestFallbackContactsSurviveTerseCompletion(t *testing.T) {
	// A completion that never mentions the gathered material must not be
	// able to drop it from the degraded answer.
	client := &chatRecorder{answer: "General guidance only, no contacts mentioned."}
	f := NewFallbackResponder(client, nil)

	contacts := []DepartmentContact{
		{Name: "Department of Immigration and Emigration", Phone: "+94 112 101 500"},
	}

	answer := f.Respond(context.Background(), "passport renewal", contacts, nil)
	for _, want := range []string{
		"Department of Immigration and Emigration",
		"+94 112 101 500",
		"General guidance only, no contacts mentioned.",
	} {
		if !strings.Contains(answer, want) {
			t.Errorf("answer missing %q: %q", want, answer)
		}
	}
}

func TestFallbackApologyOnCompletionFailure(t *testing.T) {
	client := &chatRecorder{err: errors.New("provider down")}
	f := NewFallbackResponder(client, nil)

	answer := f.Respond(context.Background(), "anything", nil, nil)
	if answer == "" {
		t.Fatal("fallback must always produce a non-empty answer")
	}
	if !strings.Contains(answer, "Government Information Center") || !strings.Contains(answer, "1919") {
		t.Errorf("apology must name the national hotline, got: %q", answer)
	}
}

func TestFallbackApologyOnEmptyCompletion(t *testing.T) {
	client := &chatRecorder{answer: "   "}
	f := NewFallbackResponder(client, nil)

	answer := f.Respond(context.Background(), "anything", nil, nil)
	if !strings.Contains(answer, "1919") {
		t.Errorf("blank completion must fall through to the apology, got: %q", answer)
	}
}
