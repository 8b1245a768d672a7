// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides provider clients for language-model completions.
//
// Two providers are supported: Anthropic Claude over its native REST API
// (production) and a local Ollama instance via langchaingo (development).
// Both expose the same two operations: a plain Chat completion and a
// ChatWithTools completion that supports function calling.
package llm

import "context"

// Message is a single conversation turn in provider-neutral form.
//
// Thread Safety: Message is immutable and safe for concurrent read access.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the text content of the turn.
	Content string `json:"content"`
}

// GenerationParams carries optional sampling parameters.
//
// Nil pointer fields mean "use the provider default". The zero value is a
// valid, fully-defaulted parameter set.
type GenerationParams struct {
	// MaxTokens caps the completion length.
	MaxTokens *int

	// Temperature controls sampling randomness.
	Temperature *float32

	// TopP is the nucleus sampling parameter.
	TopP *float32

	// TopK limits sampling to the K most likely tokens.
	TopK *int

	// Stop lists sequences that terminate generation.
	Stop []string
}

// ChatClient is the completion surface the assistant depends on.
//
// Description:
//
//	Implemented by AnthropicClient and OllamaClient. The orchestrator uses
//	ChatWithTools for the reason/act loop; the fallback responder uses Chat
//	for its single direct completion.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatClient interface {
	// Chat returns a plain text completion for the message history.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)

	// ChatWithTools returns a completion that may request tool invocations.
	ChatWithTools(ctx context.Context, messages []ChatMessage, params GenerationParams, tools []ToolDef) (*ChatWithToolsResult, error)

	// Name identifies the provider ("anthropic", "ollama").
	Name() string
}
