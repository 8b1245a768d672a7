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
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/assistant/tools"
)

var agentTracer = otel.Tracer("assistant.agent")

// DefaultMaxSteps bounds the reason/act loop. Six steps comfortably cover
// directory lookup, one web escalation, and synthesis.
const DefaultMaxSteps = 6

// systemPolicy encodes the assistant's operating rules. Policy lives here,
// in the prompt the loop always sends, not in documentation.
const systemPolicy = `You are the official government information assistant. Follow these rules strictly:

SCOPE
- Answer ONLY questions about government services, departments, procedures, and officials.
- For anything else, politely refuse and redirect: explain that you can only help with government services, and suggest the citizen rephrase or contact a general search engine.

TOOL PRIORITY
- For every government-domain question, call directory_lookup FIRST. It is the official, authoritative database.
- Use web_search, web_crawl, or web_extract ONLY when directory_lookup returns not_found or unavailable, or when the directory answer clearly does not cover the question.

PROVENANCE
- Label every piece of information with its source: "From the official government database:" for directory results, "From external web sources (unverified):" for anything from web tools.
- Whenever external web information appears, include this disclaimer sentence: "External information is unverified and may be outdated; please confirm with the relevant department."

ANSWER STRUCTURE
1. Provenance indicator (official database / external web / both).
2. Direct answer to the question.
3. Step-by-step procedure, when applicable.
4. Required documents.
5. Fees and processing time, when known.
6. Verified contact information (phone, email, website).
7. Source links.

Keep answers factual and concise. Never invent contact details.`

// RunState tags the terminal state of one agent run.
type RunState string

const (
	// RunDone means the loop produced a final answer.
	RunDone RunState = "done"

	// RunAborted means the step budget was exhausted before a final
	// answer. Not an error: the caller routes it to the fallback
	// responder. This is the loop's cooperative cancellation mechanism;
	// there is no separate wall-clock timeout.
	RunAborted RunState = "aborted"
)

// RunResult is the outcome of one logical conversation turn.
//
// Description:
//
//	Modeled as a first-class result type rather than a thrown abort so
//	the degraded path is an explicit, testable branch. Transcript holds
//	every message appended during this turn (user message, assistant
//	reasoning, tool transcripts) ready to be written back to session
//	memory.
type RunResult struct {
	// State is RunDone or RunAborted.
	State RunState

	// Answer is the final assistant text. Empty when State is RunAborted.
	Answer string

	// Transcript is the full message list after this turn, including the
	// prior history it was seeded with.
	Transcript []llm.ChatMessage

	// Sources aggregates URLs surfaced by tool calls during the run.
	Sources []string
}

// Orchestrator drives the bounded reason/act loop.
//
// Description:
//
//	One Run covers one logical turn: seed the message list with the
//	system policy, prior history, and the new user message, then
//	repeatedly ask the model to either call a tool or produce the final
//	answer. Tool failures are encoded as tool-result messages and the
//	loop continues; only LLM transport errors surface as Go errors.
//
// Thread Safety: Orchestrator is safe for concurrent use; all mutable
// state lives in the per-call message list.
type Orchestrator struct {
	client   llm.ChatClient
	registry *tools.Registry
	maxSteps int
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
//
// Inputs:
//   - client: The LLM provider. Must not be nil.
//   - registry: The tool set, directory lookup first. Must not be nil.
//   - maxSteps: Step budget; values < 0 fall back to DefaultMaxSteps.
//     Zero is honored as "abort immediately" for testing the degraded path.
//   - logger: Logger for diagnostics. Nil uses slog.Default().
func NewOrchestrator(client llm.ChatClient, registry *tools.Registry, maxSteps int, logger *slog.Logger) *Orchestrator {
	if maxSteps < 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:   client,
		registry: registry,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// Run executes one bounded reason/act turn.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - history: Prior session history (without system prompt).
//   - userMessage: The new citizen message.
//
// Outputs:
//   - *RunResult: Done with the answer, or Aborted on budget exhaustion.
//   - error: Non-nil only for LLM transport failure or context cancellation.
//
// Thread Safety: This method is safe for concurrent use.
func (o *Orchestrator) Run(ctx context.Context, history []llm.ChatMessage, userMessage string) (*RunResult, error) {
	ctx, span := agentTracer.Start(ctx, "agent.Run",
		trace.WithAttributes(
			attribute.String("provider", o.client.Name()),
			attribute.Int("history_len", len(history)),
			attribute.Int("max_steps", o.maxSteps),
		),
	)
	defer span.End()

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPolicy})
	messages = append(messages, history...)
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})

	defs := o.registry.Definitions()
	var sources []string

	for step := 0; step < o.maxSteps; step++ {
		span.AddEvent("reason", trace.WithAttributes(attribute.Int("step", step)))

		result, err := o.client.ChatWithTools(ctx, messages, llm.GenerationParams{}, defs)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("agent: completion at step %d: %w", step, err)
		}

		if len(result.ToolCalls) == 0 {
			agentSteps.Observe(float64(step + 1))
			span.SetAttributes(attribute.Int("steps_used", step+1))

			messages = append(messages, llm.ChatMessage{Role: "assistant", Content: result.Content})
			return &RunResult{
				State:      RunDone,
				Answer:     result.Content,
				Transcript: stripSystem(messages),
				Sources:    sources,
			}, nil
		}

		messages = append(messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			sources = append(sources, o.executeCall(ctx, call, &messages)...)
		}
	}

	o.logger.Warn("agent: step budget exhausted, aborting run",
		slog.Int("max_steps", o.maxSteps),
	)
	agentSteps.Observe(float64(o.maxSteps))
	span.SetAttributes(attribute.Bool("aborted", true))

	return &RunResult{
		State:      RunAborted,
		Transcript: stripSystem(messages),
		Sources:    sources,
	}, nil
}

// executeCall runs one tool invocation, appends its transcript message,
// and returns any sources it surfaced. Unknown tools and tool failures
// become tool-result messages so the model can adjust course.
func (o *Orchestrator) executeCall(ctx context.Context, call llm.ToolCallResponse, messages *[]llm.ChatMessage) []string {
	tool := o.registry.Get(call.Name)
	if tool == nil {
		o.logger.Warn("agent: model requested unknown tool", slog.String("tool", call.Name))
		toolCallsTotal.WithLabelValues(call.Name, "unknown").Inc()
		*messages = append(*messages, llm.ChatMessage{
			Role:       "tool",
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    fmt.Sprintf("Unknown tool %q. Available tools: %v.", call.Name, o.registry.Names()),
		})
		return nil
	}

	res, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		// Programmer error inside the tool; treat like a provider failure
		// so the conversation survives it.
		o.logger.Error("agent: tool execution error",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		res = &tools.Result{
			Success:    false,
			Outcome:    tools.OutcomeUnavailable,
			OutputText: "Tool execution failed. Answer from what is already known.",
			Error:      err.Error(),
		}
	}

	toolCallsTotal.WithLabelValues(call.Name, string(res.Outcome)).Inc()
	o.logger.Info("agent: tool executed",
		slog.String("tool", call.Name),
		slog.String("outcome", string(res.Outcome)),
		slog.Bool("success", res.Success),
	)

	*messages = append(*messages, llm.ChatMessage{
		Role:       "tool",
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    res.OutputText,
	})

	return res.Sources
}

// stripSystem drops the leading system message so session memory stores
// only the conversational turns; the policy prompt is re-seeded each run.
func stripSystem(messages []llm.ChatMessage) []llm.ChatMessage {
	if len(messages) > 0 && messages[0].Role == "system" {
		return messages[1:]
	}
	return messages
}
