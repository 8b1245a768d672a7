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
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianGov/services/llm"
)

// storeUnderTest runs the shared Store contract against an implementation.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown session yields empty history", func(t *testing.T) {
		history, err := store.Get(ctx, "never-seen")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("history = %d messages, want 0", len(history))
		}
	})

	t.Run("round trip preserves order", func(t *testing.T) {
		in := []llm.ChatMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
			{Role: "user", Content: "third"},
		}
		if err := store.Put(ctx, "s1", in); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		out, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(out) != len(in) {
			t.Fatalf("history length = %d, want %d", len(out), len(in))
		}
		for i := range in {
			if out[i].Role != in[i].Role || out[i].Content != in[i].Content {
				t.Errorf("message %d = %+v, want %+v", i, out[i], in[i])
			}
		}
	})

	t.Run("put replaces wholesale", func(t *testing.T) {
		if err := store.Put(ctx, "s2", []llm.ChatMessage{{Role: "user", Content: "old"}}); err != nil {
			t.Fatal(err)
		}
		if err := store.Put(ctx, "s2", []llm.ChatMessage{{Role: "user", Content: "new"}}); err != nil {
			t.Fatal(err)
		}
		out, _ := store.Get(ctx, "s2")
		if len(out) != 1 || out[0].Content != "new" {
			t.Errorf("history = %+v, want single replaced message", out)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		if err := store.Put(ctx, "a", []llm.ChatMessage{{Role: "user", Content: "for a"}}); err != nil {
			t.Fatal(err)
		}
		out, _ := store.Get(ctx, "b")
		if len(out) != 0 {
			t.Errorf("session b saw session a's history: %+v", out)
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		if err := store.Put(ctx, "s3", []llm.ChatMessage{{Role: "user", Content: "x"}}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(ctx, "s3"); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if err := store.Clear(ctx, "s3"); err != nil {
			t.Fatalf("second Clear failed: %v", err)
		}
		out, _ := store.Get(ctx, "s3")
		if len(out) != 0 {
			t.Errorf("cleared session still has %d messages", len(out))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestMemoryStoreDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	in := []llm.ChatMessage{{Role: "user", Content: "original"}}
	if err := store.Put(ctx, "s", in); err != nil {
		t.Fatal(err)
	}
	in[0].Content = "mutated after put"

	out, _ := store.Get(ctx, "s")
	if out[0].Content != "original" {
		t.Error("Put did not copy the caller's slice")
	}

	out[0].Content = "mutated after get"
	again, _ := store.Get(ctx, "s")
	if again[0].Content != "original" {
		t.Error("Get did not copy the stored slice")
	}
}

func TestBadgerStore(t *testing.T) {
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("opening badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing badger: %v", err)
		}
	})

	store, err := NewBadgerStore(db, nil)
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}

	storeUnderTest(t, store)
}

func TestNewBadgerStoreNilDB(t *testing.T) {
	if _, err := NewBadgerStore(nil, nil); err == nil {
		t.Fatal("expected an error for a nil db handle")
	}
}
