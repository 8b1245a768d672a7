// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client queries the government directory registry over HTTP.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a registry client for the given base URL.
//
// Inputs:
//   - baseURL: The registry endpoint base, e.g. "http://registry:3000".
//     The client appends "/directory". Must not be empty.
//   - logger: Logger for diagnostics. Nil uses slog.Default().
//
// Outputs:
//   - *Client: The configured client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Query looks up departments and agents matching the given filters.
//
// Description:
//
//	Issues GET /directory with the filter parameters and formats the
//	response into orchestrator-ready summaries. This method NEVER returns
//	an error: transport and decode failures become OutcomeUnavailable, an
//	empty result set becomes OutcomeNotFound. Both signal the caller to
//	fall back to external research.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - params: Optional filters. Zero value queries everything.
//
// Outputs:
//   - *LookupResult: Tagged result, never nil.
//
// Thread Safety: This method is safe for concurrent use.
func (c *Client) Query(ctx context.Context, params LookupParams) *LookupResult {
	reqURL, err := c.buildURL(params)
	if err != nil {
		c.logger.Warn("directory: building request URL failed", "error", err)
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: "invalid registry URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: "request construction failed"}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("directory: registry unreachable", "error", err)
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: "registry unreachable"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: "reading registry response failed"}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("directory: registry returned non-200",
			slog.Int("status", resp.StatusCode),
		)
		return &LookupResult{
			Outcome: OutcomeUnavailable,
			Detail:  fmt.Sprintf("registry returned status %d", resp.StatusCode),
		}
	}

	var envelope registryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Warn("directory: decoding registry response failed", "error", err)
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: "malformed registry response"}
	}

	if !envelope.Success {
		return &LookupResult{Outcome: OutcomeUnavailable, Detail: envelope.Message}
	}

	if len(envelope.Data.Departments) == 0 && len(envelope.Data.Agents) == 0 {
		return &LookupResult{
			Outcome: OutcomeNotFound,
			Detail:  "no matching departments or agents in the registry",
		}
	}

	result := &LookupResult{Outcome: OutcomeFound}
	for _, d := range envelope.Data.Departments {
		result.Departments = append(result.Departments, formatDepartment(d, c.logger))
	}
	for _, a := range envelope.Data.Agents {
		result.Agents = append(result.Agents, formatAgent(a))
	}
	result.Summary = fmt.Sprintf("%d department(s) and %d agent(s) found",
		len(envelope.Data.Departments), len(envelope.Data.Agents))

	return result
}

// buildURL assembles the GET /directory query string.
func (c *Client) buildURL(params LookupParams) (string, error) {
	u, err := url.Parse(c.baseURL + "/directory")
	if err != nil {
		return "", err
	}

	q := u.Query()
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.District != "" {
		q.Set("district", params.District)
	}
	if params.DepartmentType != "" {
		q.Set("type", params.DepartmentType)
	}
	q.Set("departments", strconv.FormatBool(params.IncludeDepartments))
	q.Set("agents", strconv.FormatBool(params.IncludeAgents))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// formatDepartment projects a wire record into the orchestrator summary shape.
// Enforces the activeAgents <= totalAgents invariant by clamping, since a
// violated count is registry corruption rather than a reason to fail the query.
func formatDepartment(d Department, logger *slog.Logger) DepartmentSummary {
	active := d.ActiveAgents
	if active > d.TotalAgents {
		logger.Warn("directory: activeAgents exceeds totalAgents, clamping",
			slog.String("department", d.Name),
			slog.Int("active", active),
			slog.Int("total", d.TotalAgents),
		)
		active = d.TotalAgents
	}

	location := d.District
	if location == "" {
		location = "Not specified"
	}

	return DepartmentSummary{
		Name:     d.Name,
		Type:     d.Type,
		Contact:  fmt.Sprintf("Phone: %s, Email: %s", d.Phone, d.Email),
		Services: d.Services,
		Location: location,
		Agents:   active,
	}
}

// formatAgent projects a wire agent record into the summary shape.
func formatAgent(a Agent) AgentSummary {
	return AgentSummary{
		Name:           a.Name,
		Department:     a.Department,
		Specialization: a.Specialization,
		Contact:        fmt.Sprintf("Email: %s", a.Email),
		Languages:      a.Languages,
	}
}
