// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "encoding/json"

// ToolDef is the provider-agnostic tool definition passed to ChatWithTools.
// Follows the OpenAI function calling schema; each provider converts it to
// its own wire format (Anthropic input_schema, Ollama function).
//
// Thread Safety: ToolDef is immutable and safe for concurrent read access.
type ToolDef struct {
	// Type is the tool type. Always "function" for function calling.
	Type string `json:"type"`

	// Function contains the function definition.
	Function ToolFunction `json:"function"`
}

// ToolFunction names a callable function and its parameter schema.
type ToolFunction struct {
	// Name is what the model invokes, e.g. "directory_lookup".
	Name string `json:"name"`

	// Description tells the model what the function does and when to
	// prefer it over other tools.
	Description string `json:"description"`

	// Parameters is the JSON Schema for the arguments.
	Parameters ToolParameters `json:"parameters"`
}

// ToolParameters is the JSON Schema object describing a tool's arguments.
type ToolParameters struct {
	// Type is always "object" here.
	Type string `json:"type"`

	// Properties maps each argument name to its schema.
	Properties map[string]ToolParamDef `json:"properties,omitempty"`

	// Required names the arguments the model must supply.
	Required []string `json:"required,omitempty"`
}

// ToolParamDef is the schema for one argument.
type ToolParamDef struct {
	// Type is the JSON Schema type (string, integer, boolean, number, array).
	Type string `json:"type"`

	// Description explains the argument to the model.
	Description string `json:"description,omitempty"`

	// Enum restricts the value to a fixed set.
	Enum []any `json:"enum,omitempty"`

	// Items is the element schema when Type is "array".
	Items *ToolParamDef `json:"items,omitempty"`

	// Default is applied when the model omits the argument.
	Default any `json:"default,omitempty"`
}

// ChatMessage is a conversation turn that carries tool call metadata.
//
// Description:
//
//	Regular turns use Role + Content. Assistant turns that requested tools
//	include ToolCalls; the matching tool-result turns use Role "tool" with
//	ToolCallID linking back to the request. This is the message type the
//	orchestrator appends to session history, so tool transcripts survive
//	across turns of a conversation.
//
// Thread Safety: ChatMessage is safe for concurrent read access.
type ChatMessage struct {
	// Role is one of "system", "user", "assistant", or "tool".
	Role string `json:"role"`

	// Content is the turn's text, empty on pure tool-call turns.
	Content string `json:"content,omitempty"`

	// ToolCalls holds the invocations an assistant turn requested.
	ToolCalls []ToolCallResponse `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-result turn to the request it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is the executed tool's name on tool-result turns.
	ToolName string `json:"tool_name,omitempty"`
}

// ToolCallResponse represents a single tool call requested by the model.
//
// Thread Safety: ToolCallResponse is safe for concurrent read access.
type ToolCallResponse struct {
	// ID uniquely identifies the call. Anthropic provides one; Ollama
	// does not, so synthetic IDs are generated there.
	ID string `json:"id"`

	// Name is the tool to invoke.
	Name string `json:"name"`

	// Arguments is the raw JSON argument object.
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentsString normalizes the raw arguments for execution: empty input
// becomes "{}", a JSON string value is unquoted (some models double-encode
// arguments), anything else passes through unchanged.
//
// Thread Safety: This method is safe for concurrent use.
func (t *ToolCallResponse) ArgumentsString() string {
	if len(t.Arguments) == 0 {
		return "{}"
	}

	if t.Arguments[0] == '"' {
		var s string
		if err := json.Unmarshal(t.Arguments, &s); err == nil {
			return s
		}
	}

	return string(t.Arguments)
}

// ChatWithToolsResult is the provider-agnostic result from ChatWithTools.
//
// Thread Safety: ChatWithToolsResult is safe for concurrent read access.
type ChatWithToolsResult struct {
	// Content is the text portion, empty when the turn is pure tool calls.
	Content string

	// ToolCalls lists the invocations the model requested, in order.
	ToolCalls []ToolCallResponse

	// StopReason is normalized across providers: "end" for a final answer,
	// "tool_use" when tool calls are present.
	StopReason string
}
