// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds small types shared across service packages.
package datatypes

import "fmt"

// ConfigurationError reports a missing or invalid startup configuration
// value, such as a provider credential.
//
// Description:
//
//	This is the only error class that crosses the service boundary as a
//	hard failure. It is raised once, at construction time, and is never
//	retried; every per-query failure is absorbed into a degraded response
//	instead.
type ConfigurationError struct {
	// Field is the configuration key that is missing or invalid.
	Field string

	// Reason describes what is wrong with the value.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
