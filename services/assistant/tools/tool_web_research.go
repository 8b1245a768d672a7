// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/webintel"
)

// =============================================================================
// web_search / web_crawl / web_extract Tools
// =============================================================================
//
// Three escalating external research capabilities. All outputs carry the
// ExternalDisclaimer prefix; none of them is authoritative.

// WebResearcher is the slice of the web intelligence client these tools need.
type WebResearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]webintel.SearchResult, error)
	Crawl(ctx context.Context, siteURL string, opts webintel.CrawlOptions) ([]webintel.SearchResult, error)
	Extract(ctx context.Context, urls []string) ([]webintel.SearchResult, error)
}

// --- web_search ---

type webSearchParams struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type webSearchTool struct {
	client WebResearcher
	logger *slog.Logger
}

// NewWebSearchTool creates the web_search tool: broad keyword search,
// the cheapest escalation after a directory miss.
func NewWebSearchTool(client WebResearcher, logger *slog.Logger) Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &webSearchTool{client: client, logger: logger}
}

// Name implements Tool.Name.
func (t *webSearchTool) Name() string { return "web_search" }

// Definition implements Tool.Definition.
func (t *webSearchTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name: "web_search",
			Description: "Search the open web for government service information. Results are " +
				"UNVERIFIED; only use when directory_lookup returned not_found or unavailable, " +
				"and always present results with the external-source disclaimer.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"query": {
						Type:        "string",
						Description: "The search query.",
					},
					"max_results": {
						Type:        "integer",
						Description: "Maximum results to return (1-10).",
						Default:     5,
					},
				},
				Required: []string{"query"},
			},
		},
	}
}

// Execute implements Tool.Execute.
func (t *webSearchTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params webSearchParams
	if err := json.Unmarshal(args, &params); err != nil {
		return badParams(fmt.Sprintf("web_search: invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(params.Query) == "" {
		return badParams("web_search: query is required"), nil
	}

	results, err := t.client.Search(ctx, params.Query, params.MaxResults)
	if err != nil {
		return providerDown("web_search", err, t.logger), nil
	}

	return externalResults(results), nil
}

// --- web_crawl ---

type webCrawlParams struct {
	URL      string `json:"url"`
	MaxDepth int    `json:"max_depth,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type webCrawlTool struct {
	client WebResearcher
	logger *slog.Logger
}

// NewWebCrawlTool creates the web_crawl tool: recursive bounded crawl of a
// site, for when a single page is insufficient.
func NewWebCrawlTool(client WebResearcher, logger *slog.Logger) Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &webCrawlTool{client: client, logger: logger}
}

// Name implements Tool.Name.
func (t *webCrawlTool) Name() string { return "web_crawl" }

// Definition implements Tool.Definition.
func (t *webCrawlTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name: "web_crawl",
			Description: "Recursively crawl a government website when one page is not enough. " +
				"More expensive than web_search; use sparingly. Results are UNVERIFIED.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"url": {
						Type:        "string",
						Description: "The site URL to start crawling from.",
					},
					"max_depth": {
						Type:        "integer",
						Description: "How many links deep to follow (1-3).",
						Default:     2,
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum pages to fetch (1-20).",
						Default:     10,
					},
				},
				Required: []string{"url"},
			},
		},
	}
}

// Execute implements Tool.Execute.
func (t *webCrawlTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params webCrawlParams
	if err := json.Unmarshal(args, &params); err != nil {
		return badParams(fmt.Sprintf("web_crawl: invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(params.URL) == "" {
		return badParams("web_crawl: url is required"), nil
	}

	results, err := t.client.Crawl(ctx, params.URL, webintel.CrawlOptions{
		MaxDepth: params.MaxDepth,
		Limit:    params.Limit,
	})
	if err != nil {
		return providerDown("web_crawl", err, t.logger), nil
	}

	return externalResults(results), nil
}

// --- web_extract ---

type webExtractParams struct {
	URLs []string `json:"urls"`
}

type webExtractTool struct {
	client WebResearcher
	logger *slog.Logger
}

// NewWebExtractTool creates the web_extract tool: targeted extraction of
// specific known URLs, the most precise (and priciest) capability.
func NewWebExtractTool(client WebResearcher, logger *slog.Logger) Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &webExtractTool{client: client, logger: logger}
}

// Name implements Tool.Name.
func (t *webExtractTool) Name() string { return "web_extract" }

// Definition implements Tool.Definition.
func (t *webExtractTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name: "web_extract",
			Description: "Extract the full content of specific known URLs (e.g., a department's " +
				"contact page already identified via web_search). Results are UNVERIFIED.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"urls": {
						Type:        "array",
						Description: "URLs to extract.",
						Items:       &llm.ToolParamDef{Type: "string"},
					},
				},
				Required: []string{"urls"},
			},
		},
	}
}

// Execute implements Tool.Execute.
func (t *webExtractTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params webExtractParams
	if err := json.Unmarshal(args, &params); err != nil {
		return badParams(fmt.Sprintf("web_extract: invalid arguments: %v", err)), nil
	}
	if len(params.URLs) == 0 {
		return badParams("web_extract: at least one url is required"), nil
	}

	results, err := t.client.Extract(ctx, params.URLs)
	if err != nil {
		return providerDown("web_extract", err, t.logger), nil
	}

	return externalResults(results), nil
}

// --- shared helpers ---

// providerDown encodes a provider failure as a continuable result.
func providerDown(tool string, err error, logger *slog.Logger) *Result {
	logger.Warn("external research provider failed",
		slog.String("tool", tool),
		slog.String("error", err.Error()),
	)
	return &Result{
		Success: false,
		Outcome: OutcomeUnavailable,
		OutputText: "The external research provider is unavailable. Answer from what is " +
			"already known and state that external research could not be completed.",
		Error: err.Error(),
	}
}

// externalResults renders research results with the mandatory disclaimer.
func externalResults(results []webintel.SearchResult) *Result {
	if len(results) == 0 {
		return &Result{
			Success:    true,
			Outcome:    OutcomeOK,
			Output:     results,
			OutputText: ExternalDisclaimer + "\n\nNo results found.",
		}
	}

	var b strings.Builder
	b.WriteString(ExternalDisclaimer)
	b.WriteString("\n")

	sources := make([]string, 0, len(results))
	for i, r := range results {
		sources = append(sources, r.URL)
		text := r.Content
		if text == "" {
			text = r.Snippet
		}
		if len(text) > 600 {
			text = text[:600] + "..."
		}
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   %s\n", i+1, r.Title, r.URL, text)
	}

	return &Result{
		Success:    true,
		Outcome:    OutcomeOK,
		Output:     results,
		OutputText: b.String(),
		Sources:    sources,
	}
}
