// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// EnsureSchema creates the KnowledgeChunk class if it does not exist yet.
// Vectors are supplied by the embedding sidecar, so the class carries no
// vectorizer of its own.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(ChunkClass).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for class %s: %w", ChunkClass, err)
	}
	if exists {
		slog.Debug("Weaviate class already present", "class", ChunkClass)
		return nil
	}

	class := &models.Class{
		Class:       ChunkClass,
		Description: "A chunk of a domain document or example test case file",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}, Description: "The chunk text"},
			{Name: "source", DataType: []string{"text"}, Description: "Chunk-level source label"},
			{Name: "parent_source", DataType: []string{"text"}, Description: "Originating file or document name"},
			{Name: "data_space", DataType: []string{"text"}, Description: "Project scope"},
			{Name: "version_tag", DataType: []string{"text"}, Description: "domain_doc or example_cases"},
			{Name: "ingested_at", DataType: []string{"int"}, Description: "Unix millis at ingestion"},
		},
	}
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", ChunkClass, err)
	}
	slog.Info("Created Weaviate class", "class", ChunkClass)
	return nil
}
