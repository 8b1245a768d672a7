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

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const ollamaDefaultModel = "llama3.1"

// OllamaClient provides completions from a local Ollama instance via
// langchaingo. Intended for credential-free local development; production
// deployments use AnthropicClient.
//
// Thread Safety: OllamaClient is safe for concurrent use.
type OllamaClient struct {
	model llms.Model
	name  string
}

// NewOllamaClient creates an OllamaClient from the environment.
//
// Description:
//
//	Reads OLLAMA_BASE_URL (default http://localhost:11434) and OLLAMA_MODEL
//	(default llama3.1). Construction only validates that the langchaingo
//	client can be built; the first completion call surfaces connectivity
//	problems.
//
// Outputs:
//   - *OllamaClient: The configured client.
//   - error: Non-nil if the underlying client cannot be constructed.
func NewOllamaClient() (*OllamaClient, error) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	modelName := os.Getenv("OLLAMA_MODEL")
	if modelName == "" {
		modelName = ollamaDefaultModel
		slog.Info("OLLAMA_MODEL not set, defaulting to", "model", modelName)
	}

	opts := []ollama.Option{ollama.WithModel(modelName)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}

	model, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: creating client: %w", err)
	}

	return &OllamaClient{model: model, name: modelName}, nil
}

// Name implements ChatClient.Name.
func (o *OllamaClient) Name() string {
	return "ollama"
}

// Chat implements ChatClient.Chat.
func (o *OllamaClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(roleToMessageType(msg.Role), msg.Content))
	}

	resp, err := o.model.GenerateContent(ctx, content, callOptions(params)...)
	if err != nil {
		return "", fmt.Errorf("ollama: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama: received empty response")
	}

	return resp.Choices[0].Content, nil
}

// ChatWithTools implements ChatClient.ChatWithTools.
//
// Description:
//
//	Converts ChatMessage history (including tool transcripts) and ToolDef
//	definitions to langchaingo types. Ollama does not assign tool call IDs,
//	so synthetic UUIDs are generated to keep the transcript linkable.
func (o *OllamaClient) ChatWithTools(ctx context.Context, messages []ChatMessage,
	params GenerationParams, tools []ToolDef) (*ChatWithToolsResult, error) {

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.Role == "tool" && msg.ToolCallID != "":
			content = append(content, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.ToolName,
					Content:    msg.Content,
				}},
			})

		case msg.Role == "assistant" && len(msg.ToolCalls) > 0:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.ArgumentsString(),
					},
				})
			}
			content = append(content, mc)

		default:
			content = append(content, llms.TextParts(roleToMessageType(msg.Role), msg.Content))
		}
	}

	lcTools := make([]llms.Tool, 0, len(tools))
	for _, td := range tools {
		lcTools = append(lcTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        td.Function.Name,
				Description: td.Function.Description,
				Parameters:  td.Function.Parameters,
			},
		})
	}

	opts := callOptions(params)
	if len(lcTools) > 0 {
		opts = append(opts, llms.WithTools(lcTools))
	}

	resp, err := o.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ollama: received empty response")
	}

	choice := resp.Choices[0]
	result := &ChatWithToolsResult{Content: choice.Content, StopReason: "end"}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		result.ToolCalls = append(result.ToolCalls, ToolCallResponse{
			ID:        id,
			Name:      tc.FunctionCall.Name,
			Arguments: json.RawMessage(tc.FunctionCall.Arguments),
		})
	}

	if len(result.ToolCalls) > 0 {
		result.StopReason = "tool_use"
	}

	return result, nil
}

// roleToMessageType maps provider-neutral roles onto langchaingo types.
func roleToMessageType(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	case "tool":
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

// callOptions converts GenerationParams to langchaingo call options.
func callOptions(params GenerationParams) []llms.CallOption {
	var opts []llms.CallOption
	if params.MaxTokens != nil {
		opts = append(opts, llms.WithMaxTokens(*params.MaxTokens))
	}
	if params.Temperature != nil {
		opts = append(opts, llms.WithTemperature(float64(*params.Temperature)))
	}
	if params.TopP != nil {
		opts = append(opts, llms.WithTopP(float64(*params.TopP)))
	}
	if params.TopK != nil {
		opts = append(opts, llms.WithTopK(*params.TopK))
	}
	if len(params.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(params.Stop))
	}
	return opts
}
