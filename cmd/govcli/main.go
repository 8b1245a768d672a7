// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command govcli is a terminal client for the govassist server.
//
// Usage:
//
//	govcli ask "How do I renew my passport?"
//	govcli chat
//	govcli chat --resume <session-id>
//	govcli clear <session-id>
//
// The server address defaults to http://localhost:8080 and can be
// overridden with GOVASSIST_URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resumeID holds the --resume flag value for the chat command.
var resumeID string

func main() {
	rootCmd := &cobra.Command{
		Use:   "govcli",
		Short: "Terminal client for the government information assistant",
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Run:   runChatCommand,
	}
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "Resume an existing session by id")

	clearCmd := &cobra.Command{
		Use:   "clear [session-id]",
		Short: "Clear a session's stored history",
		Args:  cobra.ExactArgs(1),
		Run:   runClearCommand,
	}

	rootCmd.AddCommand(askCmd, chatCmd, clearCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getAssistBaseURL resolves the server address.
func getAssistBaseURL() string {
	if url := os.Getenv("GOVASSIST_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
