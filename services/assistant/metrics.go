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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the assistant core. Registered on the default
// registry; the server binary exposes them via promhttp.
var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assist_queries_total",
		Help: "Queries processed, by outcome (done, aborted, error).",
	}, []string{"outcome"})

	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assist_tool_calls_total",
		Help: "Agent tool invocations, by tool and outcome.",
	}, []string{"tool", "outcome"})

	fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assist_fallback_total",
		Help: "Degraded-mode responses, by trigger reason.",
	}, []string{"reason"})

	agentSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assist_agent_steps",
		Help:    "Reasoning steps consumed per agent run.",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})
)
