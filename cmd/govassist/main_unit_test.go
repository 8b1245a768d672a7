// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianGov/services/datatypes"
)

func TestNewWebIntelClientMissingKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")

	_, err := newWebIntelClient("anthropic")
	if err == nil {
		t.Fatal("a missing web intelligence key must fail startup for hosted providers")
	}
	var confErr *datatypes.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("error type = %T, want *datatypes.ConfigurationError", err)
	}
	if confErr.Field != "TAVILY_API_KEY" {
		t.Errorf("field = %q", confErr.Field)
	}
}

func TestNewWebIntelClientOllamaExemption(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")

	client, err := newWebIntelClient("ollama")
	if err != nil {
		t.Fatalf("local ollama development must tolerate a missing key: %v", err)
	}
	if client != nil {
		t.Error("client should be nil so web research stays disabled")
	}
}

func TestNewWebIntelClientWithKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "tvly-test-key")

	client, err := newWebIntelClient("anthropic")
	if err != nil {
		t.Fatalf("client construction failed with a key present: %v", err)
	}
	if client == nil {
		t.Fatal("expected a configured client")
	}
}
