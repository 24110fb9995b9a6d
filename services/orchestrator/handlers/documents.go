// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseforge-ai/caseforge/pkg/validation"
	"github.com/caseforge-ai/caseforge/services/knowledge"
	"github.com/caseforge-ai/caseforge/services/orchestrator/observability"
)

// CreateDocument handles POST /v1/documents: split, embed, and store one
// document in the knowledge index.
func CreateDocument(ingestor *knowledge.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req knowledge.IngestRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.Content == "" || req.Source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content and source are required"})
			return
		}
		// Scoping values end up in GraphQL filters, validate before storing.
		if err := validation.ValidateDataSpace(req.DataSpace); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateVersionTag(req.VersionTag); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		chunksCreated, err := ingestor.Ingest(c.Request.Context(), req)
		if err != nil {
			slog.Error("Ingestion failed", "source", req.Source, "error", err)
			observability.DefaultMetrics.RecordIngestion("error", 0)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		observability.DefaultMetrics.RecordIngestion("success", chunksCreated)
		slog.Info("Successfully processed document via API", "source", req.Source, "chunks_processed", chunksCreated)
		c.JSON(http.StatusCreated, gin.H{
			"status":           "success",
			"source":           req.Source,
			"chunks_processed": chunksCreated,
		})
	}
}

// DeleteDocument handles DELETE /v1/documents: remove every chunk of one
// ingested document, identified by its source name.
func DeleteDocument(ingestor *knowledge.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.Query("source")
		if source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source query parameter is required"})
			return
		}

		deleted, err := ingestor.DeleteSource(c.Request.Context(), source)
		if err != nil {
			slog.Error("Document deletion failed", "source", source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if deleted == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no document found for source " + source})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "success",
			"source":         source,
			"chunks_deleted": deleted,
		})
	}
}

// ListDocuments handles GET /v1/documents: the unique parent sources
// currently in the index.
func ListDocuments(ingestor *knowledge.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("Received request to list ingested documents")
		sources, err := ingestor.ListSources(c.Request.Context())
		if err != nil {
			slog.Error("Failed to list documents", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query documents"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": sources})
	}
}
