// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package webintel provides the three external research capabilities over a
// Tavily-style web intelligence API: broad keyword search, recursive site
// crawl, and targeted page extraction.
//
// Everything obtained through this package is unstructured, higher-latency
// and NOT guaranteed current or authoritative; callers must present it with
// an external/unverified disclaimer.
package webintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AleutianAI/AleutianGov/services/datatypes"
)

const (
	defaultBaseURL = "https://api.tavily.com"
	defaultTimeout = 30 * time.Second
)

// SearchResult is a single result from any research capability.
//
// Thread Safety: SearchResult is immutable and safe for concurrent read access.
type SearchResult struct {
	// URL is the page location. Always set.
	URL string `json:"url"`

	// Title is the page title, when the provider supplies one.
	Title string `json:"title,omitempty"`

	// Content is the extracted page content, when available.
	Content string `json:"content,omitempty"`

	// Snippet is a short excerpt when full content is absent.
	Snippet string `json:"snippet,omitempty"`

	// Score is the provider's relevance score, when supplied.
	Score float64 `json:"score,omitempty"`
}

// CrawlOptions bounds a recursive site crawl.
type CrawlOptions struct {
	// MaxDepth limits how many links deep the crawl may follow. Default 2.
	MaxDepth int `json:"max_depth"`

	// Limit caps the total number of pages fetched. Default 10.
	Limit int `json:"limit"`
}

// Client calls the web intelligence provider.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Client from the environment.
//
// Description:
//
//	Reads TAVILY_API_KEY. A missing key is a configuration error raised
//	here at construction time, mirroring the LLM client contract: per-query
//	provider failures are recoverable, a missing credential is not.
//
// Outputs:
//   - *Client: The configured client.
//   - error: *datatypes.ConfigurationError if the API key is missing.
func NewClient(logger *slog.Logger) (*Client, error) {
	apiKey := os.Getenv("TAVILY_API_KEY")
	if apiKey == "" {
		return nil, &datatypes.ConfigurationError{Field: "TAVILY_API_KEY", Reason: "missing web intelligence API key"}
	}
	return NewClientWithConfig(apiKey, defaultBaseURL, logger), nil
}

// NewClientWithConfig creates a Client with explicit configuration.
// Useful for tests with mock servers.
func NewClientWithConfig(apiKey, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		logger:     logger,
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type crawlRequest struct {
	URL      string `json:"url"`
	MaxDepth int    `json:"max_depth,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type wireResult struct {
	URL        string  `json:"url"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content,omitempty"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// Search performs a broad keyword search.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - query: The search query. Must not be empty.
//   - maxResults: Result cap; values < 1 default to 5.
//
// Outputs:
//   - []SearchResult: Ranked results, possibly empty.
//   - error: Non-nil on transport or provider failure.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("webintel: search query must not be empty")
	}
	if maxResults < 1 {
		maxResults = 5
	}
	return c.post(ctx, "/search", searchRequest{Query: query, MaxResults: maxResults})
}

// Crawl recursively fetches pages starting from a site URL, for when a
// single page is insufficient to answer the question.
func (c *Client) Crawl(ctx context.Context, siteURL string, opts CrawlOptions) ([]SearchResult, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("webintel: crawl URL must not be empty")
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 2
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}
	return c.post(ctx, "/crawl", crawlRequest{URL: siteURL, MaxDepth: opts.MaxDepth, Limit: opts.Limit})
}

// Extract fetches the content of specific known URLs.
func (c *Client) Extract(ctx context.Context, urls []string) ([]SearchResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("webintel: extract requires at least one URL")
	}
	return c.post(ctx, "/extract", extractRequest{URLs: urls})
}

// post sends a JSON request to the given capability path and decodes the
// shared result envelope.
func (c *Client) post(ctx context.Context, path string, payload any) ([]SearchResult, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("webintel: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("webintel: creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webintel: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("webintel: reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webintel: provider returned status %d", resp.StatusCode)
	}

	var envelope wireResponse
	if err := json.Unmarshal(respBytes, &envelope); err != nil {
		return nil, fmt.Errorf("webintel: parsing response JSON: %w", err)
	}

	results := make([]SearchResult, 0, len(envelope.Results))
	for _, r := range envelope.Results {
		content := r.Content
		if content == "" {
			content = r.RawContent
		}
		snippet := ""
		if len(content) > 200 {
			snippet = content[:200]
		}
		results = append(results, SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Content: content,
			Snippet: snippet,
			Score:   r.Score,
		})
	}

	c.logger.Debug("webintel: capability call complete",
		slog.String("path", path),
		slog.Int("results", len(results)),
	)

	return results, nil
}
