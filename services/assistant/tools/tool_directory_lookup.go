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

	"github.com/AleutianAI/AleutianGov/services/directory"
	"github.com/AleutianAI/AleutianGov/services/llm"
)

// =============================================================================
// directory_lookup Tool
// =============================================================================

// DirectoryQuerier is the slice of the registry client this tool needs.
type DirectoryQuerier interface {
	Query(ctx context.Context, params directory.LookupParams) *directory.LookupResult
}

// directoryLookupParams are the model-supplied arguments.
type directoryLookupParams struct {
	Search             string `json:"search,omitempty"`
	District           string `json:"district,omitempty"`
	DepartmentType     string `json:"department_type,omitempty"`
	IncludeDepartments *bool  `json:"include_departments,omitempty"`
	IncludeAgents      *bool  `json:"include_agents,omitempty"`
}

// directoryLookupTool queries the first-party government registry.
//
// Description:
//
//	This is the highest-priority information source: authoritative,
//	low-latency, structured. The system policy requires the model to call
//	it before any external research tool for a government-domain query.
//	The three-way outcome (found / not_found / unavailable) tells the
//	model whether to answer from the registry or escalate to web research.
//
// Thread Safety: Safe for concurrent use.
type directoryLookupTool struct {
	client DirectoryQuerier
	logger *slog.Logger
}

// NewDirectoryLookupTool creates the directory_lookup tool.
//
// Inputs:
//   - client: The registry client. Must not be nil.
//   - logger: Logger for diagnostics. Nil uses slog.Default().
func NewDirectoryLookupTool(client DirectoryQuerier, logger *slog.Logger) Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &directoryLookupTool{client: client, logger: logger}
}

// Name implements Tool.Name.
func (t *directoryLookupTool) Name() string {
	return "directory_lookup"
}

// Definition implements Tool.Definition.
func (t *directoryLookupTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Type: "function",
		Function: llm.ToolFunction{
			Name: "directory_lookup",
			Description: "Search the official government directory of departments and agents. " +
				"Authoritative and current. ALWAYS call this first for any question about " +
				"government services, departments, or officials. Only use web tools if this " +
				"returns not_found or unavailable.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolParamDef{
					"search": {
						Type:        "string",
						Description: "Free-text filter over department/agent names and services.",
					},
					"district": {
						Type:        "string",
						Description: "Filter departments by district.",
					},
					"department_type": {
						Type:        "string",
						Description: "Filter by department type (e.g., ministry, authority).",
					},
					"include_departments": {
						Type:        "boolean",
						Description: "Include department records.",
						Default:     true,
					},
					"include_agents": {
						Type:        "boolean",
						Description: "Include agent records.",
						Default:     true,
					},
				},
			},
		},
	}
}

// Execute implements Tool.Execute.
func (t *directoryLookupTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params directoryLookupParams
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return badParams(fmt.Sprintf("directory_lookup: invalid arguments: %v", err)), nil
		}
	}

	lookup := directory.LookupParams{
		Search:             params.Search,
		District:           params.District,
		DepartmentType:     params.DepartmentType,
		IncludeDepartments: params.IncludeDepartments == nil || *params.IncludeDepartments,
		IncludeAgents:      params.IncludeAgents == nil || *params.IncludeAgents,
	}

	result := t.client.Query(ctx, lookup)

	switch result.Outcome {
	case directory.OutcomeFound:
		return &Result{
			Success:    true,
			Outcome:    OutcomeFound,
			Output:     result,
			OutputText: formatLookup(result),
		}, nil

	case directory.OutcomeNotFound:
		return &Result{
			Success: true,
			Outcome: OutcomeNotFound,
			Output:  result,
			OutputText: "No matching records in the official government directory. " +
				"Fall back to web_search for this question and label everything " +
				"found there as unverified external information.",
		}, nil

	default: // directory.OutcomeUnavailable
		t.logger.Warn("directory_lookup: registry unavailable",
			slog.String("detail", result.Detail),
		)
		return &Result{
			Success: false,
			Outcome: OutcomeUnavailable,
			Output:  result,
			OutputText: "The official government directory is temporarily unavailable. " +
				"Fall back to web_search and caveat the answer accordingly.",
			Error: result.Detail,
		}, nil
	}
}

// formatLookup renders a found lookup for the model's consumption.
func formatLookup(r *directory.LookupResult) string {
	var b strings.Builder
	b.WriteString("[OFFICIAL GOVERNMENT DIRECTORY] ")
	b.WriteString(r.Summary)
	b.WriteString("\n")

	for _, d := range r.Departments {
		fmt.Fprintf(&b, "\nDepartment: %s (%s)\n  Contact: %s\n  Location: %s\n  Active agents: %d\n",
			d.Name, d.Type, d.Contact, d.Location, d.Agents)
		if len(d.Services) > 0 {
			fmt.Fprintf(&b, "  Services: %s\n", strings.Join(d.Services, ", "))
		}
	}

	for _, a := range r.Agents {
		fmt.Fprintf(&b, "\nAgent: %s (%s)\n  Specialization: %s\n  Contact: %s\n",
			a.Name, a.Department, a.Specialization, a.Contact)
		if len(a.Languages) > 0 {
			fmt.Fprintf(&b, "  Languages: %s\n", strings.Join(a.Languages, ", "))
		}
	}

	return b.String()
}
