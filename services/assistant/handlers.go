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
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the JSON body for non-2xx responses.
type ErrorResponse struct {
	// Details describes what was wrong with the request.
	Details string `json:"details"`

	// Code is a stable machine-readable classifier.
	Code string `json:"code"`
}

// QueryRequest is the body of POST /v1/assist/query.
type QueryRequest struct {
	// Message is the citizen's question. Required.
	Message string `json:"message" binding:"required"`

	// SessionID continues an existing conversation. Optional; blank starts
	// a new session and the response carries the generated id.
	SessionID string `json:"sessionId"`
}

// Handlers holds the HTTP handlers for the assistant service.
//
// Thread Safety: Handlers is safe for concurrent use; it holds no mutable
// state of its own.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleQuery handles POST /v1/assist/query.
//
// Description:
//
//	Runs one conversation turn through the query facade. Degraded
//	upstreams (directory down, search provider down, LLM failure, budget
//	exhaustion) still produce 200 with a best-effort AggregatedResult;
//	400 is reserved for a malformed request body.
//
// Response:
//
//	200 OK: AggregatedResult
//	400 Bad Request: Missing or blank message
func (h *Handlers) HandleQuery(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleQuery")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Details: "message field is required",
			Code:    "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Details: "message must not be blank",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	result, err := h.service.ProcessQuery(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		// Only blank-query validation reaches here, and that was already
		// screened above; treat anything else as a bad request too.
		logger.Warn("query rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Details: err.Error(),
			Code:    "INVALID_REQUEST",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleClearSession handles DELETE /v1/assist/session/:id.
//
// Response:
//
//	204 No Content: Session cleared (idempotent; unknown ids also succeed)
//	500 Internal Server Error: Storage failure
func (h *Handlers) HandleClearSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleClearSession")

	sessionID := c.Param("id")
	if err := h.service.ClearSession(c.Request.Context(), sessionID); err != nil {
		logger.Error("session clear failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Details: "failed to clear session",
			Code:    "STORAGE_ERROR",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/assist/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/assist/ready.
//
// Description:
//
//	Readiness is equivalent to liveness here: every collaborator is
//	constructed before the router starts serving, so a running process is
//	a ready process.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
