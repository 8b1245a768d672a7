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
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/assistant/tools"
)

// scriptedClient returns pre-baked tool-calling responses in order.
type scriptedClient struct {
	responses []*llm.ChatWithToolsResult
	err       error
	calls     int
	lastSent  []llm.ChatMessage
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Chat(_ context.Context, _ []llm.Message, _ llm.GenerationParams) (string, error) {
	return "", errors.New("scripted: Chat not configured")
}

func (c *scriptedClient) ChatWithTools(_ context.Context, messages []llm.ChatMessage, _ llm.GenerationParams, _ []llm.ToolDef) (*llm.ChatWithToolsResult, error) {
	c.lastSent = messages
	if c.err != nil {
		return nil, c.err
	}
	if c.calls >= len(c.responses) {
		return nil, errors.New("scripted: ran out of responses")
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

// echoTool records invocations and returns a fixed result.
type echoTool struct {
	name    string
	result  *tools.Result
	err     error
	invoked int
}

func (t *echoTool) Name() string { return t.name }

func (t *echoTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Type:     "function",
		Function: llm.ToolFunction{Name: t.name, Parameters: llm.ToolParameters{Type: "object"}},
	}
}

func (t *echoTool) Execute(_ context.Context, _ json.RawMessage) (*tools.Result, error) {
	t.invoked++
	return t.result, t.err
}

func TestRunDoneWithoutTools(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{Content: "The answer.", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(), -1, nil)

	result, err := o.Run(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != RunDone {
		t.Fatalf("state = %q, want done", result.State)
	}
	if result.Answer != "The answer." {
		t.Errorf("answer = %q", result.Answer)
	}

	// Transcript: user message + assistant answer, system prompt stripped.
	if len(result.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(result.Transcript))
	}
	if result.Transcript[0].Role != "user" || result.Transcript[1].Role != "assistant" {
		t.Errorf("transcript roles = %q, %q", result.Transcript[0].Role, result.Transcript[1].Role)
	}

	// The model must have been sent the system policy.
	if client.lastSent[0].Role != "system" || !strings.Contains(client.lastSent[0].Content, "directory_lookup") {
		t.Error("system policy was not sent to the model")
	}
}

func TestRunToolCallThenAnswer(t *testing.T) {
	tool := &echoTool{
		name: "directory_lookup",
		result: &tools.Result{
			Success:    true,
			Outcome:    tools.OutcomeFound,
			OutputText: "directory says hello",
			Sources:    []string{"https://registry.gov.lk"},
		},
	}
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{
			StopReason: "tool_use",
			ToolCalls: []llm.ToolCallResponse{
				{ID: "call_1", Name: "directory_lookup", Arguments: json.RawMessage(`{}`)},
			},
		},
		{Content: "Final answer from the directory.", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(tool), -1, nil)

	result, err := o.Run(context.Background(), nil, "find the passport office")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != RunDone {
		t.Fatalf("state = %q, want done", result.State)
	}
	if tool.invoked != 1 {
		t.Errorf("tool invoked %d times, want 1", tool.invoked)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "https://registry.gov.lk" {
		t.Errorf("sources = %v", result.Sources)
	}

	// Transcript: user, assistant(tool call), tool result, assistant answer.
	if len(result.Transcript) != 4 {
		t.Fatalf("transcript length = %d, want 4", len(result.Transcript))
	}
	toolMsg := result.Transcript[2]
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "call_1" || toolMsg.Content != "directory says hello" {
		t.Errorf("tool message = %+v", toolMsg)
	}
}

func TestRunZeroBudgetAborts(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{Content: "should never be requested", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(), 0, nil)

	result, err := o.Run(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != RunAborted {
		t.Fatalf("state = %q, want aborted", result.State)
	}
	if result.Answer != "" {
		t.Errorf("aborted run carried an answer: %q", result.Answer)
	}
	if client.calls != 0 {
		t.Errorf("model was consulted %d times with a zero budget", client.calls)
	}
}

func TestRunBudgetExhaustion(t *testing.T) {
	// The model keeps calling tools and never answers; the loop must stop
	// at the budget, not spin.
	tool := &echoTool{
		name:   "web_search",
		result: &tools.Result{Success: true, Outcome: tools.OutcomeOK, OutputText: "more results"},
	}
	toolCall := &llm.ChatWithToolsResult{
		StopReason: "tool_use",
		ToolCalls: []llm.ToolCallResponse{
			{ID: "c", Name: "web_search", Arguments: json.RawMessage(`{}`)},
		},
	}
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{toolCall, toolCall, toolCall}}
	o := NewOrchestrator(client, tools.NewRegistry(tool), 3, nil)

	result, err := o.Run(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != RunAborted {
		t.Fatalf("state = %q, want aborted", result.State)
	}
	if client.calls != 3 {
		t.Errorf("model consulted %d times, want 3", client.calls)
	}
}

func TestRunTransportError(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	o := NewOrchestrator(client, tools.NewRegistry(), -1, nil)

	if _, err := o.Run(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected a transport error to surface")
	}
}

func TestRunUnknownToolContinues(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{
			StopReason: "tool_use",
			ToolCalls: []llm.ToolCallResponse{
				{ID: "c1", Name: "no_such_tool", Arguments: json.RawMessage(`{}`)},
			},
		},
		{Content: "recovered", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(), -1, nil)

	result, err := o.Run(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != RunDone || result.Answer != "recovered" {
		t.Fatalf("state = %q, answer = %q", result.State, result.Answer)
	}

	// The unknown-tool notice goes back to the model as a tool message.
	toolMsg := result.Transcript[2]
	if toolMsg.Role != "tool" || !strings.Contains(toolMsg.Content, "Unknown tool") {
		t.Errorf("tool message = %+v", toolMsg)
	}
}

func TestRunToolExecutionErrorContinues(t *testing.T) {
	tool := &echoTool{name: "web_search", err: errors.New("boom")}
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{
			StopReason: "tool_use",
			ToolCalls: []llm.ToolCallResponse{
				{ID: "c1", Name: "web_search", Arguments: json.RawMessage(`{}`)},
			},
		},
		{Content: "caveated answer", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(tool), -1, nil)

	result, err := o.Run(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("a tool failure must not abort the run: %v", err)
	}
	if result.State != RunDone || result.Answer != "caveated answer" {
		t.Fatalf("state = %q, answer = %q", result.State, result.Answer)
	}
}

func TestRunCarriesHistory(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatWithToolsResult{
		{Content: "follow-up answer", StopReason: "end"},
	}}
	o := NewOrchestrator(client, tools.NewRegistry(), -1, nil)

	history := []llm.ChatMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	result, err := o.Run(context.Background(), history, "and then?")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// system + 2 history + new user = 4 messages sent to the model.
	if len(client.lastSent) != 4 {
		t.Fatalf("model saw %d messages, want 4", len(client.lastSent))
	}
	if len(result.Transcript) != 4 {
		t.Errorf("transcript length = %d, want 4 (history + turn)", len(result.Transcript))
	}
}
