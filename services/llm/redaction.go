// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"regexp"
)

// redactionPattern pairs a compiled regex with a replacement label.
//
// Description:
//
//	Each pattern identifies a class of sensitive value (provider API key,
//	bearer token, citizen contact details) and provides a labeled
//	replacement so the log reader knows what was redacted without seeing
//	the value itself. Citizen queries routinely contain phone numbers and
//	email addresses; those must never land in the log stream verbatim.
//
// Thread Safety: This type is immutable after construction.
type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// redactionPatterns is the ordered list of sensitive patterns to redact.
//
// IMPORTANT: Order matters. More specific patterns (e.g., sk-ant-api03-)
// must appear BEFORE less specific patterns (e.g., sk-) to prevent
// partial redaction.
//
// Thread Safety: This slice is initialized once and never modified.
// All access is read-only.
var redactionPatterns = []redactionPattern{
	// Anthropic API key: sk-ant-api03-<base62>
	{
		Pattern:     regexp.MustCompile(`sk-ant-api03-[A-Za-z0-9_-]{20,}`),
		Replacement: "[REDACTED:anthropic_key]",
	},
	// Generic sk- prefixed key (20+ chars to avoid matching short strings).
	{
		Pattern:     regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
		Replacement: "[REDACTED:provider_key]",
	},
	// Tavily-style web intelligence key: tvly-<base62>
	{
		Pattern:     regexp.MustCompile(`tvly-[A-Za-z0-9_-]{10,}`),
		Replacement: "[REDACTED:webintel_key]",
	},
	// Bearer token in Authorization header values
	{
		Pattern:     regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`),
		Replacement: "[REDACTED:bearer_token]",
	},
	// API key in URL query parameter: key=<value>
	{
		Pattern:     regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`),
		Replacement: "key=[REDACTED]",
	},
	// Email address (citizen PII in queries and extracted snippets)
	{
		Pattern:     regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		Replacement: "[REDACTED:email]",
	},
	// International phone number: +<country code> followed by 6+ digits/separators
	{
		Pattern:     regexp.MustCompile(`\+\d{1,3}[\d\s\-()]{6,}\d`),
		Replacement: "[REDACTED:phone]",
	},
}

// SafeLogString redacts known sensitive patterns from a string before logging.
//
// Description:
//
//	Iterates through a predefined set of regex patterns that match provider
//	API keys, bearer tokens, email addresses, and phone numbers. Each match
//	is replaced with a labeled placeholder (e.g., [REDACTED:email]) so the
//	log reader knows what class of value was present without seeing it.
//
// Inputs:
//   - s: The string to redact. Empty string is valid and returns empty string.
//
// Outputs:
//   - string: The input with all matched patterns replaced. If no patterns
//     match, returns the original string unchanged.
//
// Limitations:
//   - Pattern-based detection only. National phone formats without a country
//     prefix (e.g., "0112 345 678") are not matched.
//   - A value that spans multiple lines will not be matched.
//
// Thread Safety: This function is safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}
