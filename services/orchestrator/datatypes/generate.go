// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides the request and response structures shared by
// the API handlers, the generation pipeline, and the knowledge store.
package datatypes

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxInputBytes bounds the description and acceptance criteria fields.
// Oversized free-text payloads are rejected before any model call.
const MaxInputBytes = 64 * 1024

var generateValidate *validator.Validate

func init() {
	generateValidate = validator.New()
	_ = generateValidate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxInputBytes
	})
}

// SearchResult is one retrieved document chunk from the vector index.
// Score is only populated by scored searches.
type SearchResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score,omitempty"`
}

// GenerateTestCasesRequest is the body of POST /v1/generate.
//
// Criteria, when provided, is a manual override: segmentation is skipped and
// the list is used verbatim, in order. UseKnowledge defaults to true.
type GenerateTestCasesRequest struct {
	Id                 string   `json:"id"`
	Timestamp          int64    `json:"timestamp"`
	Description        string   `json:"description" validate:"required,maxbytes"`
	AcceptanceCriteria string   `json:"acceptance_criteria" validate:"required,maxbytes"`
	Criteria           []string `json:"criteria,omitempty"`
	Model              string   `json:"model,omitempty"`
	UseKnowledge       *bool    `json:"use_knowledge,omitempty"`
	Project            string   `json:"project,omitempty"`
}

// EnsureDefaults populates the request ID, timestamp and knowledge flag when
// the caller omitted them. Safe to call more than once.
func (r *GenerateTestCasesRequest) EnsureDefaults() {
	if r.Id == "" {
		r.Id = uuid.New().String()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	if r.UseKnowledge == nil {
		defaultUse := true
		r.UseKnowledge = &defaultUse
	}
}

// Validate checks required fields and size limits.
func (r *GenerateTestCasesRequest) Validate() error {
	if err := generateValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid generate request: %w", err)
	}
	return nil
}

// KnowledgeEnabled resolves the tri-state UseKnowledge flag.
func (r *GenerateTestCasesRequest) KnowledgeEnabled() bool {
	return r.UseKnowledge == nil || *r.UseKnowledge
}

// GenerationMetadata describes one completed generation run.
type GenerationMetadata struct {
	GeneratedAt           time.Time `json:"generated_at"`
	GenerationTimeSeconds float64   `json:"generation_time_seconds"`
	Model                 string    `json:"model_used"`
	CriteriaCount         int       `json:"criteria_count"`
	ChunkCount            int       `json:"chunk_count"`
	KnowledgeUsed         bool      `json:"knowledge_used"`
	PromptTokens          int       `json:"prompt_tokens,omitempty"`
	CompletionTokens      int       `json:"completion_tokens,omitempty"`
	EstimatedCostUSD      float64   `json:"estimated_cost_usd,omitempty"`
}

// GenerateTestCasesResponse is the body returned by POST /v1/generate.
type GenerateTestCasesResponse struct {
	Success    bool               `json:"success"`
	TestCases  string             `json:"test_cases"`
	OutputFile string             `json:"output_file,omitempty"`
	Metadata   GenerationMetadata `json:"metadata"`
}

// SearchRequest is the body of POST /v1/search: similar test case lookup
// against the knowledge index.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k,omitempty"`
}

// EnsureDefaults applies the default result count.
func (r *SearchRequest) EnsureDefaults() {
	if r.K <= 0 {
		r.K = 5
	}
}

// Validate checks required fields.
func (r *SearchRequest) Validate() error {
	if err := generateValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid search request: %w", err)
	}
	return nil
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
