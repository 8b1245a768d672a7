// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianGov/services/llm"
)

// BadgerDB key prefix for session checkpoints.
const keyPrefixSession = "assist:session:"

// BadgerStore persists session history in BadgerDB.
//
// Description:
//
//	One key per session ("assist:session:<id>"), JSON-encoded history as
//	the value. Survives process restarts, so a conversation can resume
//	after a deploy.
//
// Thread Safety: BadgerStore is safe for concurrent use across different
// session ids; Badger transactions provide the per-key consistency.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewBadgerStore creates a BadgerStore over an open database handle.
//
// Inputs:
//   - db: An open Badger database. Must not be nil. The caller owns the
//     handle lifecycle and closes it on shutdown.
//   - logger: Logger for diagnostics. Nil uses slog.Default().
//
// Outputs:
//   - *BadgerStore: The configured store.
//   - error: Non-nil if db is nil.
func NewBadgerStore(db *badger.DB, logger *slog.Logger) (*BadgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("memory: badger db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Get implements Store.Get.
func (s *BadgerStore) Get(_ context.Context, sessionID string) ([]llm.ChatMessage, error) {
	var history []llm.ChatMessage

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixSession + sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &history)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("memory: reading session %q: %w", sessionID, err)
	}

	return history, nil
}

// Put implements Store.Put.
func (s *BadgerStore) Put(_ context.Context, sessionID string, history []llm.ChatMessage) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("memory: encoding session %q: %w", sessionID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefixSession+sessionID), encoded)
	})
	if err != nil {
		return fmt.Errorf("memory: writing session %q: %w", sessionID, err)
	}

	s.logger.Debug("session checkpoint written",
		slog.String("session_id", sessionID),
		slog.Int("turns", len(history)),
	)
	return nil
}

// Clear implements Store.Clear.
func (s *BadgerStore) Clear(_ context.Context, sessionID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyPrefixSession + sessionID))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("memory: clearing session %q: %w", sessionID, err)
	}
	return nil
}
