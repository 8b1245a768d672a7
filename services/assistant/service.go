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
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianGov/services/assistant/memory"
	"github.com/AleutianAI/AleutianGov/services/llm"
	"github.com/AleutianAI/AleutianGov/services/webintel"
)

var serviceTracer = otel.Tracer("assistant.service")

// Service is the query facade: the single entry point request handlers
// call.
//
// Description:
//
//	Constructed once at startup with every collaborator injected; a
//	construction failure (missing credentials, broken taxonomy) is fatal
//	at boot, never at request time. ProcessQuery runs contact discovery
//	and the agent loop concurrently and merges both into one
//	AggregatedResult.
//
// Thread Safety: Service is safe for concurrent use.
type Service struct {
	orchestrator *Orchestrator
	discovery    *Discovery
	fallback     *FallbackResponder
	sessions     memory.Store
	logger       *slog.Logger
}

// NewService wires the facade.
//
// Inputs:
//   - orchestrator: The agent loop. Must not be nil.
//   - discovery: Contact discovery. Must not be nil.
//   - fallback: The degraded-path responder. Must not be nil.
//   - sessions: Session memory. Must not be nil.
//   - logger: Logger for diagnostics. Nil uses slog.Default().
func NewService(orchestrator *Orchestrator, discovery *Discovery, fallback *FallbackResponder, sessions memory.Store, logger *slog.Logger) (*Service, error) {
	if orchestrator == nil || discovery == nil || fallback == nil || sessions == nil {
		return nil, fmt.Errorf("assistant: all Service collaborators must be non-nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orchestrator: orchestrator,
		discovery:    discovery,
		fallback:     fallback,
		sessions:     sessions,
		logger:       logger,
	}, nil
}

// ProcessQuery handles one citizen query end to end.
//
// Description:
//
//	Two branches run concurrently: contact discovery (categorize, search,
//	extract) and the agent loop (load history, run, persist history).
//	Their outputs merge into one AggregatedResult. The agent branch
//	degrades rather than fails: an aborted run or an LLM transport error
//	routes to the fallback responder, which always produces text. The
//	only error this method returns is a blank query.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - query: The citizen's message. Must be non-blank.
//   - sessionID: Conversation id; blank generates a fresh UUID.
//
// Outputs:
//   - *AggregatedResult: Non-nil whenever error is nil; Response is never
//     empty.
//   - error: Non-nil only for a blank query.
//
// Thread Safety: This method is safe for concurrent use across different
// session ids. Concurrent calls with the SAME session id race on history
// persistence; callers should serialize per session.
func (s *Service) ProcessQuery(ctx context.Context, query, sessionID string) (*AggregatedResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("assistant: query must not be blank")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := serviceTracer.Start(ctx, "service.ProcessQuery")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	s.logger.Info("processing query",
		slog.String("session_id", sessionID),
		slog.String("query", redactedQuery(query)),
	)

	var (
		contacts      []DepartmentContact
		searchResults []webintel.SearchResult
		run           *RunResult
		runErr        error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		contacts, searchResults = s.discovery.DiscoverContacts(gctx, query)
		return nil
	})

	g.Go(func() error {
		history, err := s.sessions.Get(gctx, sessionID)
		if err != nil {
			// A memory read failure degrades to a fresh conversation rather
			// than failing the query.
			s.logger.Warn("session read failed, starting fresh",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			history = nil
		}

		run, runErr = s.orchestrator.Run(gctx, history, query)
		if runErr != nil || run.State != RunDone {
			return nil
		}

		if err := s.sessions.Put(gctx, sessionID, run.Transcript); err != nil {
			s.logger.Warn("session write failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})

	// Both branches swallow their own failures, so Wait cannot error.
	_ = g.Wait()

	var (
		response string
		sources  []string
		outcome  string
	)

	switch {
	case runErr != nil:
		s.logger.Warn("agent run failed, responding via fallback",
			slog.String("session_id", sessionID),
			slog.String("error", runErr.Error()),
		)
		fallbackTotal.WithLabelValues("llm_error").Inc()
		response = s.fallback.Respond(ctx, query, contacts, searchResults)
		outcome = "error"

	case run.State == RunAborted:
		fallbackTotal.WithLabelValues("budget_exhausted").Inc()
		response = s.fallback.Respond(ctx, query, contacts, searchResults)
		sources = run.Sources
		outcome = "aborted"

	default:
		response = run.Answer
		sources = run.Sources
		outcome = "done"
	}

	queriesTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))

	return &AggregatedResult{
		Response:           response,
		SearchResults:      searchResults,
		DepartmentContacts: contacts,
		Sources:            dedupeSources(searchResults, sources...),
		SessionID:          sessionID,
	}, nil
}

// ClearSession removes all stored history for a session.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// redactedQuery scrubs credential and PII patterns before a query reaches
// the logs.
func redactedQuery(query string) string {
	if len(query) > 200 {
		query = query[:200]
	}
	return llm.SafeLogString(query)
}
