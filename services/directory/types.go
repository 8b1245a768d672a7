// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package directory queries the first-party curated registry of government
// departments and agents. It is the highest-priority, authoritative source:
// the orchestrator must always consult it before any external research tool.
package directory

// Outcome tags the result of a registry lookup.
//
// Description:
//
//	The three outcomes form an explicit sum type so the orchestrator's
//	policy layer can branch exhaustively. NotFound and Unavailable both
//	signal "fall back to external research", but are kept distinct so the
//	caller can caveat its answer differently (no match vs. registry down).
type Outcome string

const (
	// OutcomeFound means the registry returned at least one department or agent.
	OutcomeFound Outcome = "found"

	// OutcomeNotFound means the registry answered but had no matching records.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeUnavailable means the registry could not be reached or answered
	// with an error. Transport failures are encoded here, never thrown.
	OutcomeUnavailable Outcome = "unavailable"
)

// LookupParams are the optional filters for a registry query.
type LookupParams struct {
	// Search is a free-text filter over names and services.
	Search string `json:"search,omitempty"`

	// District filters departments by district.
	District string `json:"district,omitempty"`

	// DepartmentType filters by department type (e.g., "ministry", "authority").
	DepartmentType string `json:"department_type,omitempty"`

	// IncludeDepartments requests department records. Defaults to true.
	IncludeDepartments bool `json:"include_departments"`

	// IncludeAgents requests agent records. Defaults to true.
	IncludeAgents bool `json:"include_agents"`
}

// Department is a registry department record as returned on the wire.
type Department struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Website      string   `json:"website"`
	District     string   `json:"district"`
	Services     []string `json:"services"`
	ActiveAgents int      `json:"activeAgents"`
	TotalAgents  int      `json:"totalAgents"`
}

// Agent is a registry agent record as returned on the wire.
type Agent struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Department     string   `json:"department"`
	Specialization string   `json:"specialization"`
	Email          string   `json:"email"`
	Languages      []string `json:"languages"`
}

// Summary is the registry's record count summary.
type Summary struct {
	TotalDepartments int `json:"totalDepartments"`
	TotalAgents      int `json:"totalAgents"`
}

// registryResponse is the wire envelope for GET /directory.
type registryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Departments []Department `json:"departments"`
		Agents      []Agent      `json:"agents"`
		Summary     Summary      `json:"summary"`
	} `json:"data"`
}

// DepartmentSummary is the formatted projection handed to the orchestrator.
type DepartmentSummary struct {
	// Name is the department name.
	Name string `json:"name"`

	// Type is the department type.
	Type string `json:"type"`

	// Contact is the combined contact line: "Phone: X, Email: Y".
	Contact string `json:"contact"`

	// Services lists the services the department provides.
	Services []string `json:"services"`

	// Location is the district, or "Not specified" when absent.
	Location string `json:"location"`

	// Agents is the number of active agents.
	Agents int `json:"agents"`
}

// AgentSummary is the formatted agent projection handed to the orchestrator.
type AgentSummary struct {
	// Name is the agent's name.
	Name string `json:"name"`

	// Department is the department the agent belongs to.
	Department string `json:"department"`

	// Specialization is the agent's area of expertise.
	Specialization string `json:"specialization"`

	// Contact is the combined contact line: "Email: Z".
	Contact string `json:"contact"`

	// Languages lists the languages the agent serves.
	Languages []string `json:"languages"`
}

// LookupResult is the tagged result of a registry lookup.
//
// Description:
//
//	Outcome is always set. Departments, Agents and Summary are populated
//	only for OutcomeFound. Detail carries a short human-readable note for
//	the non-found outcomes (e.g., the transport error class).
type LookupResult struct {
	// Outcome tags which branch of the sum type this result represents.
	Outcome Outcome `json:"outcome"`

	// Departments holds formatted department summaries (found only).
	Departments []DepartmentSummary `json:"departments,omitempty"`

	// Agents holds formatted agent summaries (found only).
	Agents []AgentSummary `json:"agents,omitempty"`

	// Summary is a one-line record count (found only).
	Summary string `json:"summary,omitempty"`

	// Detail explains not_found/unavailable outcomes.
	Detail string `json:"detail,omitempty"`
}
