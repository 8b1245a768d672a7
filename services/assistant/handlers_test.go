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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianGov/services/llm"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := &combinedClient{toolResponses: []*llm.ChatWithToolsResult{
		{Content: "handler answer", StopReason: "end"},
	}}
	svc, _ := newTestService(t, client, -1, nil)

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func TestHandleQuery(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(QueryRequest{Message: "renew my passport"})
	req := httptest.NewRequest(http.MethodPost, "/v1/assist/query", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result AggregatedResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response did not decode: %v", err)
	}
	if result.Response != "handler answer" {
		t.Errorf("response = %q", result.Response)
	}
	if result.SessionID == "" {
		t.Error("response missing generated session id")
	}
	if len(result.DepartmentContacts) == 0 {
		t.Error("response missing department contacts")
	}
}

func TestHandleQueryBadRequest(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{nope"},
		{"missing message", `{}`},
		{"blank message", `{"message": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/assist/query", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var errResp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("error body did not decode: %v", err)
			}
			if errResp.Code != "INVALID_REQUEST" {
				t.Errorf("code = %q", errResp.Code)
			}
			if errResp.Details == "" {
				t.Error("error body missing the details field")
			}
			if !strings.Contains(w.Body.String(), `"details"`) {
				t.Errorf("error body must use the details key: %s", w.Body.String())
			}
		})
	}
}

func TestHandleClearSession(t *testing.T) {
	router := newTestRouter(t)

	// Clearing an unknown session is idempotent.
	req := httptest.NewRequest(http.MethodDelete, "/v1/assist/session/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestHandleHealthAndReady(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/v1/assist/health", "/v1/assist/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(QueryRequest{Message: "renew my passport"})
	req := httptest.NewRequest(http.MethodPost, "/v1/assist/query", bytes.NewReader(body))
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want echoed req-42", got)
	}
}
