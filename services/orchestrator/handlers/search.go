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

	"github.com/caseforge-ai/caseforge/services/knowledge"
	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

// SearchKnowledge handles POST /v1/search: semantic lookup of similar
// chunks in the knowledge index.
func SearchKnowledge(store *knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SearchRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		results, err := store.SimilaritySearch(c.Request.Context(), req.Query, req.K)
		if err != nil {
			slog.Error("Knowledge search failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, datatypes.SearchResponse{Results: results})
	}
}
