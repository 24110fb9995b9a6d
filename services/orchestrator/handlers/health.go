// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// KnowledgeDisabled answers for knowledge routes when the server runs in
// lightweight mode without a vector index.
func KnowledgeDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge index is disabled on this server"})
}

// HealthCheck reports liveness plus Weaviate reachability. The endpoint
// stays 200 in lightweight mode (nil client) so liveness checks don't flap
// when the index is intentionally absent.
func HealthCheck(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		weaviateStatus := "disabled"
		if client != nil {
			ready, err := client.Misc().ReadyChecker().Do(c.Request.Context())
			switch {
			case err != nil:
				weaviateStatus = "unreachable"
			case ready:
				weaviateStatus = "ready"
			default:
				weaviateStatus = "not_ready"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"weaviate": weaviateStatus,
		})
	}
}
