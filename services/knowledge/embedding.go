// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package knowledge is the vector-index side of the system: embedding,
// ingestion, and semantic retrieval of domain documents and example test
// cases stored in Weaviate.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type EmbeddingRequest struct {
	Text string `json:"text"`
}

type EmbeddingResponse struct {
	Id        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model"`
	Dim       int       `json:"dim"`
}

type BatchEmbeddingRequest struct {
	Texts []string `json:"texts"`
}

type BatchEmbeddingResponse struct {
	Id        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Vectors   [][]float32 `json:"vectors"`
	Model     string      `json:"model"`
	Dim       int         `json:"dim"`
}

// Embedder is the HTTP client for the embedding sidecar. It exposes the
// sidecar's /embed and /batch_embed endpoints.
type Embedder struct {
	httpClient *http.Client
	baseURL    string
}

// NewEmbedder connects to the embedding service. An empty baseURL falls back
// to EMBEDDING_SERVICE_URL.
func NewEmbedder(baseURL string) (*Embedder, error) {
	if baseURL == "" {
		baseURL = os.Getenv("EMBEDDING_SERVICE_URL")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("EMBEDDING_SERVICE_URL not set")
	}
	// Accept either the service root or the /embed endpoint itself.
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/embed")
	return &Embedder{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
	}, nil
}

// Embed computes the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embResp EmbeddingResponse
	if err := e.post(ctx, "/embed", EmbeddingRequest{Text: text}, &embResp); err != nil {
		return nil, err
	}
	return embResp.Vector, nil
}

// BatchEmbed computes vectors for many texts in one call. The service
// guarantees positional correspondence between inputs and outputs.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var batchResp BatchEmbeddingResponse
	if err := e.post(ctx, "/batch_embed", BatchEmbeddingRequest{Texts: texts}, &batchResp); err != nil {
		return nil, err
	}
	if len(batchResp.Vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts",
			len(batchResp.Vectors), len(texts))
	}
	return batchResp.Vectors, nil
}

func (e *Embedder) post(ctx context.Context, path string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call embedding service at %s: %w", e.baseURL+path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read embedding service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service %s returned status %d: %s", path, resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse embedding service response: %w", err)
	}
	return nil
}
