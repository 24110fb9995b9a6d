// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

var tracer = otel.Tracer("caseforge.knowledge")

// ChunkClass is the Weaviate class holding ingested knowledge chunks.
const ChunkClass = "KnowledgeChunk"

// charsPerToken is the rough character/token ratio used to translate a token
// budget into a byte budget when packing context.
const charsPerToken = 4

// contextSearchLimit bounds how many candidate chunks a context query pulls
// before budget packing.
const contextSearchLimit = 10

// RetrievalError indicates the vector index could not be queried.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for query %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsRetrievalError checks if an error is a *RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// EmbeddingProvider computes vectors for queries and documents.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is semantic retrieval over the KnowledgeChunk class. A non-empty
// dataSpace restricts every query to that project's chunks.
type Store struct {
	client    *weaviate.Client
	embedder  EmbeddingProvider
	dataSpace string
}

func NewStore(client *weaviate.Client, embedder EmbeddingProvider) *Store {
	return &Store{client: client, embedder: embedder}
}

// ForDataSpace returns a view of the store scoped to one project.
func (s *Store) ForDataSpace(dataSpace string) *Store {
	scoped := *s
	scoped.dataSpace = dataSpace
	return &scoped
}

// chunkQueryResponse is the typed shape of a KnowledgeChunk GraphQL query.
type chunkQueryResponse struct {
	Get struct {
		KnowledgeChunk []struct {
			Content    string `json:"content"`
			Source     string `json:"parent_source"`
			Additional struct {
				Certainty *float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"KnowledgeChunk"`
	} `json:"Get"`
}

// SimilaritySearch embeds the query and returns the k nearest chunks with
// their certainty scores, best first.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]datatypes.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Store.SimilaritySearch")
	defer span.End()
	span.SetAttributes(attribute.Int("search.k", k))

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Error("Failed to embed search query", "error", err)
		return nil, &RetrievalError{Query: query, Err: err}
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	// Request certainty (always [0,1]) instead of distance which varies by metric.
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "parent_source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	builder := s.client.GraphQL().Get().
		WithClassName(ChunkClass).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k)
	if s.dataSpace != "" {
		builder = builder.WithWhere(filters.Where().
			WithPath([]string{"data_space"}).
			WithOperator(filters.Equal).
			WithValueText(s.dataSpace))
	}

	result, err := builder.Do(ctx)
	if err != nil {
		slog.Error("Weaviate search failed", "error", err)
		return nil, &RetrievalError{Query: query, Err: err}
	}

	parsed, err := parseGraphQL[chunkQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse search results", "error", err)
		return nil, &RetrievalError{Query: query, Err: err}
	}

	results := make([]datatypes.SearchResult, 0, len(parsed.Get.KnowledgeChunk))
	for _, chunk := range parsed.Get.KnowledgeChunk {
		score := 0.0
		if chunk.Additional.Certainty != nil {
			score = *chunk.Additional.Certainty
		}
		results = append(results, datatypes.SearchResult{
			Content: chunk.Content,
			Source:  chunk.Source,
			Score:   score,
		})
	}
	slog.Debug("Similarity search complete", "query_length", len(query), "results", len(results))
	return results, nil
}

// RelevantContext retrieves the best-matching chunks and packs them, best
// first, into a maxTokens budget. Returns the empty string when the index
// has nothing for the query.
func (s *Store) RelevantContext(ctx context.Context, query string, maxTokens int) (string, error) {
	ctx, span := tracer.Start(ctx, "Store.RelevantContext")
	defer span.End()

	results, err := s.SimilaritySearch(ctx, query, contextSearchLimit)
	if err != nil {
		return "", err
	}
	packed := packChunks(results, maxTokens*charsPerToken)
	span.SetAttributes(attribute.Int("retrieval.context_bytes", len(packed)))
	return packed, nil
}

// packChunks joins result contents with blank-line separators, stopping
// before the first chunk that would overflow the byte budget. The first
// chunk is always admitted so a single oversized match still yields context.
func packChunks(results []datatypes.SearchResult, budget int) string {
	var parts []string
	used := 0
	for _, r := range results {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if len(parts) > 0 && used+len(content) > budget {
			break
		}
		parts = append(parts, content)
		used += len(content)
	}
	return strings.Join(parts, "\n\n")
}

// parseGraphQL converts Weaviate's dynamic response payload into a typed
// struct via a JSON round trip.
func parseGraphQL[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}
	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}
