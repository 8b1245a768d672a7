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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the assistant routes with the router.
//
// Description:
//
//	Registers all /v1/assist/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST   /v1/assist/query - Process one conversation turn
//	DELETE /v1/assist/session/:id - Clear a session's history
//	GET    /v1/assist/health - Health check
//	GET    /v1/assist/ready - Readiness check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	assist := rg.Group("/assist")
	{
		assist.POST("/query", handlers.HandleQuery)
		assist.DELETE("/session/:id", handlers.HandleClearSession)

		assist.GET("/health", handlers.HandleHealth)
		assist.GET("/ready", handlers.HandleReady)
	}
}
