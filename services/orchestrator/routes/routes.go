// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/caseforge-ai/caseforge/services/knowledge"
	"github.com/caseforge-ai/caseforge/services/orchestrator/handlers"
	"github.com/caseforge-ai/caseforge/services/orchestrator/middleware"
)

// SetupRoutes registers every orchestrator endpoint. Ingestor and store may
// be nil in lightweight mode; knowledge routes then answer 503. A non-empty
// apiKey protects the /v1 group; health and metrics stay open for liveness
// checks and scrapers.
func SetupRoutes(router *gin.Engine, client *weaviate.Client,
	ingestor *knowledge.Ingestor, store *knowledge.Store,
	generateDeps handlers.GenerateDeps, apiKey string) {

	router.GET("/health", handlers.HealthCheck(client))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(apiKey))
	{
		v1.POST("/generate", handlers.GenerateTestCases(generateDeps))
		v1.GET("/usage", handlers.UsageStats(generateDeps.Counter))
		if ingestor != nil {
			v1.POST("/documents", handlers.CreateDocument(ingestor))
			v1.GET("/documents", handlers.ListDocuments(ingestor))
			v1.DELETE("/documents", handlers.DeleteDocument(ingestor))
		} else {
			v1.POST("/documents", handlers.KnowledgeDisabled)
			v1.GET("/documents", handlers.KnowledgeDisabled)
			v1.DELETE("/documents", handlers.KnowledgeDisabled)
		}
		if store != nil {
			v1.POST("/search", handlers.SearchKnowledge(store))
		} else {
			v1.POST("/search", handlers.KnowledgeDisabled)
		}
	}
}
