// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tokens counts prompt and completion tokens and keeps a persistent
// usage log with cost estimates.
package tokens

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// Per-1K-token pricing used for the running cost estimate.
const (
	gpt4PromptPer1K       = 0.03
	gpt4CompletionPer1K   = 0.06
	gpt35PromptPer1K      = 0.0015
	gpt35CompletionPer1K  = 0.002
	fallbackTokensPerWord = 1.67
)

var wordPattern = regexp.MustCompile(`\w+`)

// Usage is one request's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type requestEntry struct {
	Timestamp        time.Time         `json:"timestamp"`
	RequestType      string            `json:"request_type"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	TotalTokens      int               `json:"total_tokens"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type usageLog struct {
	TotalTokens      int            `json:"total_tokens"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	Requests         []requestEntry `json:"requests"`
	CreatedAt        time.Time      `json:"created_at"`
	LastUpdated      time.Time      `json:"last_updated"`
}

// Stats is the aggregate view returned by GetUsageStats.
type Stats struct {
	TotalTokens         int                `json:"total_tokens"`
	PromptTokens        int                `json:"prompt_tokens"`
	CompletionTokens    int                `json:"completion_tokens"`
	NumRequests         int                `json:"num_requests"`
	AvgTokensPerRequest float64            `json:"avg_tokens_per_request"`
	EstimatedCosts      map[string]float64 `json:"estimated_costs"`
	CreatedAt           time.Time          `json:"created_at"`
	LastUpdated         time.Time          `json:"last_updated"`
}

// Counter counts tokens with tiktoken and appends request entries to a JSON
// usage log. Safe for concurrent use.
type Counter struct {
	mu       sync.Mutex
	logPath  string
	encoding *tiktoken.Tiktoken
}

// NewCounter opens (or creates) the usage log at logPath. When the tiktoken
// encoding cannot be loaded the counter degrades to a word-based estimate.
func NewCounter(logPath string) (*Counter, error) {
	c := &Counter{logPath: logPath}

	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("Failed to load tiktoken encoding, using word-based estimate", "error", err)
	} else {
		c.encoding = encoding
	}

	if err := c.initLog(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Counter) initLog() error {
	if _, err := os.Stat(c.logPath); err == nil {
		// Verify the file holds valid JSON; back up and recreate otherwise.
		raw, readErr := os.ReadFile(c.logPath)
		if readErr == nil && json.Valid(raw) {
			return nil
		}
		backup := c.logPath + ".bak"
		slog.Warn("Token usage log is corrupt, recreating", "path", c.logPath, "backup", backup)
		if err := os.Rename(c.logPath, backup); err != nil {
			return fmt.Errorf("failed to back up corrupt usage log: %w", err)
		}
	}
	now := time.Now()
	return c.writeLog(&usageLog{Requests: []requestEntry{}, CreatedAt: now, LastUpdated: now})
}

// CountTokens returns the token count for text. Empty text counts as zero.
func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	words := wordPattern.FindAllString(text, -1)
	return int(float64(len(words)) * fallbackTokensPerWord)
}

// LogRequest records one prompt/completion pair and returns its usage. Log
// write failures are reported but the computed usage is still returned.
func (c *Counter) LogRequest(requestType, prompt, completion string, metadata map[string]string) (Usage, error) {
	usage := Usage{
		PromptTokens:     c.CountTokens(prompt),
		CompletionTokens: c.CountTokens(completion),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	c.mu.Lock()
	defer c.mu.Unlock()

	log, err := c.readLog()
	if err != nil {
		return usage, err
	}
	log.TotalTokens += usage.TotalTokens
	log.PromptTokens += usage.PromptTokens
	log.CompletionTokens += usage.CompletionTokens
	log.Requests = append(log.Requests, requestEntry{
		Timestamp:        time.Now(),
		RequestType:      requestType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Metadata:         metadata,
	})
	log.LastUpdated = time.Now()

	if err := c.writeLog(log); err != nil {
		return usage, err
	}
	return usage, nil
}

// GetUsageStats returns the running totals plus cost estimates for common
// model price points.
func (c *Counter) GetUsageStats() (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log, err := c.readLog()
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalTokens:      log.TotalTokens,
		PromptTokens:     log.PromptTokens,
		CompletionTokens: log.CompletionTokens,
		NumRequests:      len(log.Requests),
		CreatedAt:        log.CreatedAt,
		LastUpdated:      log.LastUpdated,
		EstimatedCosts: map[string]float64{
			"gpt4":        float64(log.PromptTokens)/1000*gpt4PromptPer1K + float64(log.CompletionTokens)/1000*gpt4CompletionPer1K,
			"gpt35_turbo": float64(log.PromptTokens)/1000*gpt35PromptPer1K + float64(log.CompletionTokens)/1000*gpt35CompletionPer1K,
		},
	}
	if stats.NumRequests > 0 {
		stats.AvgTokensPerRequest = float64(stats.TotalTokens) / float64(stats.NumRequests)
	}
	return stats, nil
}

func (c *Counter) readLog() (*usageLog, error) {
	raw, err := os.ReadFile(c.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token usage log: %w", err)
	}
	var log usageLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("failed to parse token usage log: %w", err)
	}
	return &log, nil
}

func (c *Counter) writeLog(log *usageLog) error {
	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token usage log: %w", err)
	}
	if err := os.WriteFile(c.logPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write token usage log: %w", err)
	}
	return nil
}
