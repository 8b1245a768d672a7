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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// queryRequest is the payload for POST /v1/assist/query.
type queryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// contactInfo mirrors the server's DepartmentContact response.
type contactInfo struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Website  string   `json:"website"`
	Services []string `json:"services"`
}

// queryResponse mirrors the server's AggregatedResult response.
type queryResponse struct {
	Response           string        `json:"response"`
	DepartmentContacts []contactInfo `json:"departmentContacts"`
	Sources            []string      `json:"sources"`
	SessionID          string        `json:"sessionId"`
}

func runAskCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	fmt.Printf("Asking: %s\n", question)
	fmt.Println("---")

	resp, err := sendQuery(question, "")
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	printResult(resp)
}

func runChatCommand(_ *cobra.Command, _ []string) {
	sessionID := resumeID
	if sessionID != "" {
		fmt.Printf("Resuming session %s\n", sessionID)
	}
	fmt.Println("Government information assistant. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" || question == "q" {
			fmt.Println("Goodbye.")
			break
		}

		resp, err := sendQuery(question, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		// Carry the server-assigned session forward so follow-up questions
		// share context.
		sessionID = resp.SessionID
		printResult(resp)
	}

	if sessionID != "" {
		fmt.Printf("\n[session: %s — resume with 'govcli chat --resume %s']\n", sessionID, sessionID)
	}
}

func runClearCommand(_ *cobra.Command, args []string) {
	sessionID := args[0]
	targetURL := fmt.Sprintf("%s/v1/assist/session/%s", getAssistBaseURL(), sessionID)

	req, err := http.NewRequest(http.MethodDelete, targetURL, nil)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Error: assistant server unavailable at %s: %v", getAssistBaseURL(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Clear failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	fmt.Printf("Session %s cleared.\n", sessionID)
}

// sendQuery posts one question and decodes the aggregated result.
func sendQuery(question, sessionID string) (*queryResponse, error) {
	payload, err := json.Marshal(queryRequest{
		Message:   question,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	targetURL := fmt.Sprintf("%s/v1/assist/query", getAssistBaseURL())

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Post(targetURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("assistant server unavailable at %s: %w", getAssistBaseURL(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned an error (status %d): %s", resp.StatusCode, string(body))
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// printResult renders one answer with its contacts and sources.
func printResult(resp *queryResponse) {
	fmt.Printf("\n%s\n", resp.Response)

	if len(resp.DepartmentContacts) > 0 {
		fmt.Println("\nDepartment Contacts:")
		for i, c := range resp.DepartmentContacts {
			fmt.Printf("%d. %s\n", i+1, c.Name)
			if c.Phone != "" {
				fmt.Printf("   Phone: %s\n", c.Phone)
			}
			if c.Email != "" {
				fmt.Printf("   Email: %s\n", c.Email)
			}
			if c.Website != "" {
				fmt.Printf("   Website: %s\n", c.Website)
			}
		}
	}

	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range resp.Sources {
			fmt.Printf("%d. %s\n", i+1, s)
		}
	}

	fmt.Println("\n---")
}
