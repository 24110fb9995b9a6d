// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"
)

var (
	CHUNK_SIZE        = 1000
	CHUNK_OVERLAP     = int(float64(CHUNK_SIZE) * 0.10) // Chunk_overlap is 10% of the CHUNK_SIZE
	defaultSeparators = []string{"\n\n", "\n", " ", ""}

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}

	// Gherkin feature files split best on scenario boundaries.
	gherkinSeparators = []string{
		"\nFeature:", "\nScenario:", "\nScenario Outline:", "\nBackground:",
		"\n\n", "\n", " ", "",
	}
)

// IngestRequest is one document headed for the knowledge index. VersionTag
// distinguishes domain docs ("domain_doc") from example test cases
// ("example_cases"); DataSpace scopes chunks to a project.
type IngestRequest struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	DataSpace  string `json:"data_space"`
	VersionTag string `json:"version_tag"`
}

// Ingestor splits, embeds, and batch-imports documents into Weaviate.
type Ingestor struct {
	client   *weaviate.Client
	embedder EmbeddingProvider
}

func NewIngestor(client *weaviate.Client, embedder EmbeddingProvider) *Ingestor {
	return &Ingestor{client: client, embedder: embedder}
}

// Ingest runs the full pipeline for one document and returns the number of
// chunks stored. Chunk IDs are derived from a content hash, so re-ingesting
// an unchanged document overwrites rather than duplicates.
func (ing *Ingestor) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	ctx, span := tracer.Start(ctx, "Ingestor.Ingest")
	defer span.End()
	slog.Info("Ingestion request received", "source", req.Source)

	splitter := getSplitterForFile(req.Source)
	chunks, err := splitter.SplitText(req.Content)
	if err != nil {
		slog.Error("Failed to split text", "source", req.Source, "error", err)
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "source", req.Source)
		return 0, nil
	}
	slog.Info("Split document into chunks", "source", req.Source, "chunk_count", len(chunks))

	vectors, err := ing.embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		slog.Error("Failed to get batch embeddings", "source", req.Source, "error", err)
		return 0, err
	}
	slog.Info("Successfully generated batch embeddings", "source", req.Source, "vector_count", len(vectors))

	// --- Batch Weaviate Import in one request ---
	batcher := ing.client.Batch().ObjectsBatcher()
	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		chunkSource := fmt.Sprintf("%s_part_%d", req.Source, i+1)
		objects[i] = &models.Object{
			Class:  ChunkClass,
			ID:     strfmt.UUID(chunkID(chunk)),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":       chunk,
				"source":        chunkSource,
				"parent_source": req.Source,
				"data_space":    req.DataSpace,
				"version_tag":   req.VersionTag,
				"ingested_at":   time.Now().UnixMilli(),
			},
		}
	}
	batcher.WithObjects(objects...)

	resp, err := batcher.Do(ctx)
	if err != nil {
		slog.Error("Failed to perform batch import to Weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	chunksCreated := 0
	hasErrors := false
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			chunksCreated++
			continue
		}
		hasErrors = true
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "source", req.Source, "error", errItem.Message)
			}
		} else {
			slog.Warn("Failed Weaviate batch item, no error provided", "source", req.Source)
		}
	}
	if hasErrors {
		slog.Warn("Errors encountered during Weaviate batch import", "source", req.Source, "successful_chunks", chunksCreated)
	}

	slog.Info("Successfully processed document", "source", req.Source, "chunks_processed", chunksCreated)
	return chunksCreated, nil
}

// ListSources returns the unique parent_source names present in the index.
func (ing *Ingestor) ListSources(ctx context.Context) ([]string, error) {
	agg, err := ing.client.GraphQL().Aggregate().
		WithClassName(ChunkClass).
		WithGroupBy("parent_source").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate knowledge chunks: %w", err)
	}

	var sources []string
	aggData, ok := agg.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return sources, nil
	}
	groups, ok := aggData[ChunkClass].([]interface{})
	if !ok {
		return sources, nil
	}
	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]interface{})
		if !ok {
			continue
		}
		groupedBy, ok := groupMap["groupedBy"].(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := groupedBy["value"].(string); ok {
			sources = append(sources, name)
		}
	}
	return sources, nil
}

// DeleteSource removes every chunk belonging to one ingested document and
// returns how many were deleted.
func (ing *Ingestor) DeleteSource(ctx context.Context, parentSource string) (int, error) {
	ctx, span := tracer.Start(ctx, "Ingestor.DeleteSource")
	defer span.End()

	where := filters.Where().
		WithPath([]string{"parent_source"}).
		WithOperator(filters.Equal).
		WithValueText(parentSource)

	resp, err := ing.client.Batch().ObjectsBatchDeleter().
		WithClassName(ChunkClass).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", parentSource, err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	if resp.Results.Failed > 0 {
		slog.Warn("Some chunks could not be deleted",
			"source", parentSource, "failed", resp.Results.Failed)
	}
	slog.Info("Deleted document from knowledge index",
		"source", parentSource, "chunks_deleted", resp.Results.Successful)
	return int(resp.Results.Successful), nil
}

// chunkID derives a deterministic UUID from the chunk content.
func chunkID(chunk string) string {
	hash := sha256.Sum256([]byte(chunk))
	docUUID, _ := uuid.FromBytes(hash[:16])
	return docUUID.String()
}

func getSplitterForFile(filename string) textsplitter.TextSplitter {
	switch filepath.Ext(filename) {
	case ".md":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(markdownSeparators),
		)
	case ".feature":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(gherkinSeparators),
		)
	default:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(defaultSeparators),
		)
	}
}
