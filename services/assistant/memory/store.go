// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory persists per-session conversation history.
//
// The store is the only cross-request shared state in the assistant: keyed
// by session id, read once at loop start, written once at loop end.
// Different session ids never interact. Two implementations are provided:
// an in-process map for tests and single-node development, and a BadgerDB
// store for durable checkpoints.
package memory

import (
	"context"
	"sync"

	"github.com/AleutianAI/AleutianGov/services/llm"
)

// Store is the session checkpoint interface.
//
// Description:
//
//	Get returns the full ordered history for a session; an unknown session
//	id yields an empty history and a nil error, never a "not found" error.
//	Put replaces the stored history wholesale (the orchestrator appends
//	in-memory and writes back once per turn). Clear removes the session;
//	implementations may defer the physical delete until the next write.
//
// Thread Safety: Implementations must be safe for concurrent use across
// DIFFERENT session ids. Callers are expected to serialize access per
// session id; last-write-wins on concurrent writes to the same session
// would corrupt history ordering.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)
	Put(ctx context.Context, sessionID string, history []llm.ChatMessage) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps session history in an in-process map.
//
// Thread Safety: MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]llm.ChatMessage
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]llm.ChatMessage)}
}

// Get implements Store.Get. Returns a copy so callers can append freely.
func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sessions[sessionID]
	history := make([]llm.ChatMessage, len(stored))
	copy(history, stored)
	return history, nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, sessionID string, history []llm.ChatMessage) error {
	stored := make([]llm.ChatMessage, len(history))
	copy(stored, history)

	s.mu.Lock()
	s.sessions[sessionID] = stored
	s.mu.Unlock()
	return nil
}

// Clear implements Store.Clear.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
