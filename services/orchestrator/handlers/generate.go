// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin handlers for the orchestrator API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/caseforge-ai/caseforge/pkg/output"
	"github.com/caseforge-ai/caseforge/pkg/tokens"
	"github.com/caseforge-ai/caseforge/pkg/validation"
	"github.com/caseforge-ai/caseforge/services/generator"
	"github.com/caseforge-ai/caseforge/services/knowledge"
	"github.com/caseforge-ai/caseforge/services/llm"
	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
	"github.com/caseforge-ai/caseforge/services/orchestrator/observability"
)

var handlerTracer = otel.Tracer("caseforge.orchestrator.handlers")

// GenerateDeps wires the generation handler. Store and Counter may be nil;
// the handler degrades to no retrieval and no usage accounting.
type GenerateDeps struct {
	Client    llm.LLMClient
	Store     *knowledge.Store
	Counter   *tokens.Counter
	Writer    *output.Writer
	ModelName string
	Config    generator.Config
}

// GenerateTestCases handles POST /v1/generate. A generator is assembled per
// request so project scoping can narrow the knowledge store.
func GenerateTestCases(deps GenerateDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "GenerateTestCases")
		defer span.End()

		var req datatypes.GenerateTestCasesRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind generate request JSON", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Project scopes retrieval filters, so it follows identifier rules.
		if err := validation.ValidateDataSpace(req.Project); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.SetAttributes(
			attribute.String("request.id", req.Id),
			attribute.String("request.project", req.Project),
			attribute.Bool("request.use_knowledge", req.KnowledgeEnabled()),
		)
		slog.Info("Received generation request", "id", req.Id, "project", req.Project)

		var retriever generator.KnowledgeRetriever
		if deps.Store != nil {
			if req.Project != "" {
				retriever = deps.Store.ForDataSpace(req.Project)
			} else {
				retriever = deps.Store
			}
		}
		cfg := deps.Config
		cfg.OnModelAttempt = observability.DefaultMetrics.RecordModelAttempt
		gen := generator.NewGenerator(deps.Client, retriever, cfg)

		result, err := gen.GenerateWithMetadata(ctx, generator.GenerateRequest{
			Description:        req.Description,
			AcceptanceCriteria: req.AcceptanceCriteria,
			CriteriaOverride:   req.Criteria,
			UseKnowledge:       req.KnowledgeEnabled(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
			observability.DefaultMetrics.RecordGeneration("api", "error", 0, 0)
			slog.Error("Generation failed", "id", req.Id, "error", err)
			switch {
			case generator.IsGenerationError(err):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			case knowledge.IsRetrievalError(err):
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		metadata := datatypes.GenerationMetadata{
			GeneratedAt:           result.GeneratedAt,
			GenerationTimeSeconds: result.Duration.Seconds(),
			Model:                 deps.ModelName,
			CriteriaCount:         result.CriteriaCount,
			ChunkCount:            result.ChunkCount,
			KnowledgeUsed:         result.KnowledgeUsed,
		}
		if deps.Counter != nil {
			usage, logErr := deps.Counter.LogRequest("test_case_generation",
				req.Description+"\n"+req.AcceptanceCriteria, result.TestCases,
				map[string]string{"request_id": req.Id})
			if logErr != nil {
				slog.Warn("Failed to log token usage", "error", logErr)
			}
			metadata.PromptTokens = usage.PromptTokens
			metadata.CompletionTokens = usage.CompletionTokens
			observability.DefaultMetrics.RecordTokens(usage.PromptTokens, usage.CompletionTokens)
		}

		outputFile := ""
		if deps.Writer != nil {
			path, saveErr := deps.Writer.Save(result.TestCases)
			if saveErr != nil {
				slog.Warn("Failed to save generated document", "error", saveErr)
			} else {
				outputFile = path
			}
		}

		observability.DefaultMetrics.RecordGeneration("api", "success",
			result.Duration.Seconds(), result.ChunkCount)
		c.JSON(http.StatusOK, datatypes.GenerateTestCasesResponse{
			Success:    true,
			TestCases:  result.TestCases,
			OutputFile: outputFile,
			Metadata:   metadata,
		})
	}
}
