// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools defines the agent-callable tools: the authoritative
// directory lookup plus the three external research capabilities.
package tools

import (
	"context"
	"encoding/json"

	"github.com/AleutianAI/AleutianGov/services/llm"
)

// ExternalDisclaimer prefixes every piece of external research output.
//
// This is a hard output-formatting requirement, not styling: results from
// the open web are unverified and the citizen must be told so.
const ExternalDisclaimer = "[EXTERNAL WEB - UNVERIFIED] The following information comes from " +
	"external web sources. It may be outdated or inaccurate; verify with the " +
	"relevant government department before acting on it."

// Outcome tags how a tool execution went, beyond simple success/failure.
type Outcome string

const (
	// OutcomeOK means the tool ran and produced usable output.
	OutcomeOK Outcome = "ok"

	// OutcomeFound means the directory registry matched records.
	OutcomeFound Outcome = "found"

	// OutcomeNotFound means the registry had no match; fall back to web research.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeUnavailable means the backing provider failed; fall back or caveat.
	OutcomeUnavailable Outcome = "unavailable"

	// OutcomeBadParams means the model supplied unusable arguments.
	OutcomeBadParams Outcome = "bad_params"
)

// Result is the outcome of one tool execution.
//
// Description:
//
//	Tools encode provider failures here instead of returning Go errors, so
//	the agent loop can continue with remaining tools or reach a caveated
//	answer. OutputText is what gets appended to the conversation as the
//	tool-result message; Output carries the structured form for the facade.
//
// Thread Safety: Result is safe for concurrent read access once returned.
type Result struct {
	// Success is false only for unusable arguments or provider failure.
	Success bool `json:"success"`

	// Outcome tags the branch for exhaustive policy handling.
	Outcome Outcome `json:"outcome"`

	// Output is the structured result payload, when there is one.
	Output any `json:"output,omitempty"`

	// OutputText is the text handed back to the model.
	OutputText string `json:"output_text"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`

	// Sources lists URLs that informed this result, for aggregation.
	Sources []string `json:"sources,omitempty"`
}

// Tool is one agent-callable capability.
//
// Description:
//
//	Execute must never panic and must never return a non-nil error for a
//	provider failure; the error return is reserved for programmer errors
//	(nil receivers, impossible states). Argument problems come back as
//	OutcomeBadParams results so the model can retry with corrected input.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the function name exposed to the model.
	Name() string

	// Definition returns the function-calling schema for this tool.
	Definition() llm.ToolDef

	// Execute runs the tool with raw JSON arguments from the model.
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// Registry holds the tool set in a fixed priority order.
//
// Thread Safety: Registry is immutable after construction.
type Registry struct {
	ordered []Tool
	byName  map[string]Tool
}

// NewRegistry creates a registry preserving the given tool order. The
// order is meaningful: it is the priority order surfaced to the model,
// with the directory lookup first.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.ordered = append(r.ordered, t)
		r.byName[t.Name()] = t
	}
	return r
}

// Get returns the named tool, or nil when unknown.
func (r *Registry) Get(name string) Tool {
	return r.byName[name]
}

// Definitions returns the tool schemas in registry order.
func (r *Registry) Definitions() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.ordered))
	for _, t := range r.ordered {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Names returns the tool names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, t := range r.ordered {
		names = append(names, t.Name())
	}
	return names
}

// badParams builds the standard unusable-arguments result.
func badParams(msg string) *Result {
	return &Result{
		Success:    false,
		Outcome:    OutcomeBadParams,
		OutputText: msg,
		Error:      msg,
	}
}
