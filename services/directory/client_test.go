// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const foundResponse = `{
  "success": true,
  "message": "ok",
  "data": {
    "departments": [
      {
        "name": "Department of Immigration and Emigration",
        "type": "department",
        "phone": "+94 112 101 500",
        "email": "controller@immigration.gov.lk",
        "district": "Colombo",
        "services": ["passports", "visas"],
        "activeAgents": 12,
        "totalAgents": 20
      }
    ],
    "agents": [
      {
        "name": "N. Perera",
        "department": "Department of Immigration and Emigration",
        "specialization": "passport renewals",
        "email": "nperera@immigration.gov.lk",
        "languages": ["Sinhala", "Tamil", "English"]
      }
    ]
  }
}`

func TestQueryFound(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directory" {
			t.Errorf("path = %q, want /directory", r.URL.Path)
		}
		gotQuery = map[string]string{
			"search":      r.URL.Query().Get("search"),
			"departments": r.URL.Query().Get("departments"),
			"agents":      r.URL.Query().Get("agents"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(foundResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	result := c.Query(context.Background(), LookupParams{
		Search:             "passport",
		IncludeDepartments: true,
		IncludeAgents:      true,
	})

	if result.Outcome != OutcomeFound {
		t.Fatalf("outcome = %q, want found (detail: %s)", result.Outcome, result.Detail)
	}
	if gotQuery["search"] != "passport" || gotQuery["departments"] != "true" || gotQuery["agents"] != "true" {
		t.Errorf("query params = %v", gotQuery)
	}

	if len(result.Departments) != 1 {
		t.Fatalf("departments = %d", len(result.Departments))
	}
	d := result.Departments[0]
	if d.Contact != "Phone: +94 112 101 500, Email: controller@immigration.gov.lk" {
		t.Errorf("contact = %q", d.Contact)
	}
	if d.Location != "Colombo" {
		t.Errorf("location = %q", d.Location)
	}
	if d.Agents != 12 {
		t.Errorf("agents = %d", d.Agents)
	}

	if len(result.Agents) != 1 {
		t.Fatalf("agents = %d", len(result.Agents))
	}
	if result.Agents[0].Contact != "Email: nperera@immigration.gov.lk" {
		t.Errorf("agent contact = %q", result.Agents[0].Contact)
	}

	if result.Summary != "1 department(s) and 1 agent(s) found" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestQueryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "message": "ok", "data": {"departments": [], "agents": []}}`))
	}))
	defer srv.Close()

	result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{Search: "nothing"})
	if result.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %q, want not_found", result.Outcome)
	}
}

func TestQueryUnavailable(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{})
		if result.Outcome != OutcomeUnavailable {
			t.Errorf("outcome = %q, want unavailable", result.Outcome)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // shut down before the client calls

		result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{})
		if result.Outcome != OutcomeUnavailable {
			t.Errorf("outcome = %q, want unavailable", result.Outcome)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json at all"))
		}))
		defer srv.Close()

		result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{})
		if result.Outcome != OutcomeUnavailable {
			t.Errorf("outcome = %q, want unavailable", result.Outcome)
		}
	})

	t.Run("registry reports failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"success": false, "message": "index rebuilding"}`))
		}))
		defer srv.Close()

		result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{})
		if result.Outcome != OutcomeUnavailable {
			t.Errorf("outcome = %q, want unavailable", result.Outcome)
		}
		if result.Detail != "index rebuilding" {
			t.Errorf("detail = %q", result.Detail)
		}
	})
}

func TestQueryClampsAgentCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
  "success": true,
  "data": {
    "departments": [{"name": "Broken Dept", "activeAgents": 50, "totalAgents": 5}],
    "agents": []
  }
}`))
	}))
	defer srv.Close()

	result := NewClient(srv.URL, nil).Query(context.Background(), LookupParams{})
	if result.Outcome != OutcomeFound {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if result.Departments[0].Agents != 5 {
		t.Errorf("agents = %d, want clamped to totalAgents 5", result.Departments[0].Agents)
	}
	if result.Departments[0].Location != "Not specified" {
		t.Errorf("location = %q, want default", result.Departments[0].Location)
	}
}
