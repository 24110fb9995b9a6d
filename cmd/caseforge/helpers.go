// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/caseforge-ai/caseforge/cmd/caseforge/config"
)

var apiClient = &http.Client{Timeout: 15 * time.Minute}

// orchestratorURL resolves the API base URL: env override first, then the
// config file, then the default.
func orchestratorURL() string {
	if url := os.Getenv("CASEFORGE_ORCHESTRATOR_URL"); url != "" {
		return strings.TrimSuffix(url, "/")
	}
	if config.Global.Orchestrator.URL != "" {
		return strings.TrimSuffix(config.Global.Orchestrator.URL, "/")
	}
	return "http://localhost:12210"
}

// apiKey resolves the bearer token for authenticated servers: env override
// first, then the config file. Empty means the server runs open.
func apiKey() string {
	if key := os.Getenv("CASEFORGE_API_KEY"); key != "" {
		return key
	}
	return config.Global.Orchestrator.APIKey
}

// postJSON sends a request and decodes the response into out. Non-2xx
// responses surface the server's error body.
func postJSON(path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, orchestratorURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(req, out)
}

// getJSON fetches a path and decodes the response into out.
func getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, orchestratorURL()+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return doJSON(req, out)
}

func doJSON(req *http.Request, out any) error {
	if key := apiKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach the orchestrator at %s: %w", orchestratorURL(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("orchestrator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// stdoutIsTTY reports whether pretty terminal output makes sense.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
