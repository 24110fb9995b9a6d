// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/caseforge-ai/caseforge/services/llm"
	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

var generatorTracer = otel.Tracer("caseforge.generator")

// NoRelevantContext is the sentinel a knowledge retriever may return when
// the vector index has nothing useful. It is treated as an empty context.
const NoRelevantContext = "No relevant context found."

// Retrieval parameters for one generation run.
const (
	contextTokenBudget = 1000
	similarExampleK    = 3
	exampleExcerptLen  = 500
)

// KnowledgeRetriever is the read side of the vector index as the pipeline
// sees it: embedded semantic search over ingested domain documents.
type KnowledgeRetriever interface {
	RelevantContext(ctx context.Context, query string, maxTokens int) (string, error)
	SimilaritySearch(ctx context.Context, query string, k int) ([]datatypes.SearchResult, error)
}

// GenerateRequest carries one generation call. CriteriaOverride, when
// non-empty, bypasses segmentation entirely; this is how callers pin the
// criteria list for deterministic downstream behavior.
type GenerateRequest struct {
	Description        string
	AcceptanceCriteria string
	CriteriaOverride   []string
	UseKnowledge       bool
}

// GenerateResult is the metadata-bearing variant of a generation outcome.
type GenerateResult struct {
	TestCases     string        `json:"test_cases"`
	CriteriaCount int           `json:"criteria_count"`
	ChunkCount    int           `json:"chunk_count"`
	KnowledgeUsed bool          `json:"knowledge_used"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Duration      time.Duration `json:"generation_time"`
}

// Generator runs the full pipeline: retrieve → segment → chunk → prompt →
// generate → reconcile → post-process. A single run owns its chunk sequence
// end-to-end and processes it sequentially; there is no concurrent chunk
// work, by contract of the reconciler's implicit index scheme.
type Generator struct {
	client    llm.LLMClient
	retriever KnowledgeRetriever
	segmenter Segmenter
	assembler *PromptAssembler
	driver    *Driver
	chunkSize int
}

// Config tunes a Generator. Zero values select the defaults.
type Config struct {
	ChunkSize int
	// CallRate paces LLM invocations (requests per second). Zero = unpaced.
	CallRate rate.Limit
	Params   llm.GenerationParams
	// OnModelAttempt, when non-nil, observes every model invocation outcome
	// ("success", "retry", "exhausted"). Callers hook metrics here.
	OnModelAttempt func(outcome string)
}

// NewGenerator builds a pipeline around the given model client. retriever
// may be nil, in which case knowledge retrieval is skipped regardless of the
// request flag.
func NewGenerator(client llm.LLMClient, retriever KnowledgeRetriever, cfg Config) *Generator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Params.Temperature == nil {
		temp := float32(0.1)
		cfg.Params.Temperature = &temp
	}
	return &Generator{
		client:    client,
		retriever: retriever,
		segmenter: DefaultSegmenter(),
		assembler: NewPromptAssembler(),
		driver:    NewDriver(client, cfg.Params, cfg.CallRate, cfg.OnModelAttempt),
		chunkSize: cfg.ChunkSize,
	}
}

// Generate produces the final test-case document. The only hard failure is
// *GenerationError (model exhausted its attempts for some chunk) or a
// retrieval failure when knowledge was requested; reconciliation problems
// degrade to the raw concatenated model output instead of failing.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	result, err := g.GenerateWithMetadata(ctx, req)
	if err != nil {
		return "", err
	}
	return result.TestCases, nil
}

// GenerateWithMetadata is Generate plus run statistics for API responses
// and usage logging.
func (g *Generator) GenerateWithMetadata(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	ctx, span := generatorTracer.Start(ctx, "Generator.Generate")
	defer span.End()
	start := time.Now()

	useKnowledge := req.UseKnowledge && g.retriever != nil
	span.SetAttributes(attribute.Bool("generation.use_knowledge", useKnowledge))

	domainKnowledge, similarExamples := "", ""
	if useKnowledge {
		var err error
		domainKnowledge, similarExamples, err = g.retrieveContext(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "knowledge retrieval failed")
			return nil, fmt.Errorf("knowledge retrieval failed: %w", err)
		}
	}

	criteria := SegmentCriteria(g.segmenter, req.AcceptanceCriteria, req.CriteriaOverride)
	chunks := ChunkCriteria(criteria, g.chunkSize)
	span.SetAttributes(
		attribute.Int("generation.criteria", len(criteria)),
		attribute.Int("generation.chunks", len(chunks)),
	)
	slog.Info("Starting test case generation",
		"criteria", len(criteria), "chunks", len(chunks), "use_knowledge", useKnowledge)

	raw, err := g.driver.Run(ctx, chunks, func(chunk GenerationChunk) (string, error) {
		return g.assembler.Assemble(chunk, req.Description, domainKnowledge, similarExamples)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}

	document := PostProcess(Reconcile(raw, criteria))
	return &GenerateResult{
		TestCases:     document,
		CriteriaCount: len(criteria),
		ChunkCount:    len(chunks),
		KnowledgeUsed: useKnowledge,
		GeneratedAt:   start,
		Duration:      time.Since(start),
	}, nil
}

// retrieveContext performs the single retrieval pass for a run: a domain
// knowledge block bounded by the token budget, and up to K similar test
// case examples with their sources.
func (g *Generator) retrieveContext(ctx context.Context, req GenerateRequest) (string, string, error) {
	ctx, span := generatorTracer.Start(ctx, "Generator.retrieveContext")
	defer span.End()

	query := req.Description + "\n" + req.AcceptanceCriteria
	domainKnowledge, err := g.retriever.RelevantContext(ctx, query, contextTokenBudget)
	if err != nil {
		return "", "", err
	}
	if domainKnowledge == NoRelevantContext {
		domainKnowledge = ""
	}

	docs, err := g.retriever.SimilaritySearch(ctx, "test cases examples for "+req.Description, similarExampleK)
	if err != nil {
		return "", "", err
	}
	examples := make([]string, 0, len(docs))
	for _, doc := range docs {
		source := doc.Source
		if source == "" {
			source = "knowledge base"
		}
		examples = append(examples, fmt.Sprintf("Example from %s:\n%s...", source, excerpt(doc.Content, exampleExcerptLen)))
	}
	span.SetAttributes(attribute.Int("retrieval.examples", len(examples)))
	return domainKnowledge, strings.Join(examples, "\n---\n"), nil
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
