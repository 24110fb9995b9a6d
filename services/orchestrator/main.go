// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"golang.org/x/time/rate"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/caseforge-ai/caseforge/pkg/logging"
	"github.com/caseforge-ai/caseforge/pkg/output"
	"github.com/caseforge-ai/caseforge/pkg/tokens"
	"github.com/caseforge-ai/caseforge/services/generator"
	"github.com/caseforge-ai/caseforge/services/knowledge"
	"github.com/caseforge-ai/caseforge/services/llm"
	"github.com/caseforge-ai/caseforge/services/orchestrator/handlers"
	"github.com/caseforge-ai/caseforge/services/orchestrator/observability"
	"github.com/caseforge-ai/caseforge/services/orchestrator/routes"
)

var globalLLMClient llm.LLMClient

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("caseforge-orchestrator")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	sampler := sdktrace.NeverSample()
	if os.Getenv("CASEFORGE_TRACE") == "1" {
		sampler = sdktrace.AlwaysSample()
	}
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}, nil
}

// connectWeaviate parses WEAVIATE_SERVICE_URL and connects, or returns nil
// for lightweight mode (generation without a knowledge index).
func connectWeaviate() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Sanitize: Trim quotes and whitespace just in case Podman passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running in lightweight mode (generation only).")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running in lightweight mode.",
			"url", weaviateURL, "error", err)
		return nil
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	if err := knowledge.EnsureSchema(context.Background(), client); err != nil {
		slog.Error("Failed to ensure Weaviate schema", "error", err)
	}
	return client
}

func main() {
	port := os.Getenv("ORCHESTRATOR_PORT")
	if port == "" {
		port = "12210"
	}

	level, err := logging.ParseLevel(os.Getenv("CASEFORGE_LOG_LEVEL"))
	if err != nil {
		slog.Warn("Invalid CASEFORGE_LOG_LEVEL, using INFO", "error", err)
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  os.Getenv("CASEFORGE_LOG_DIR"),
		Service: "orchestrator",
	})
	defer logger.Close()
	logger.Install()

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	weaviateClient := connectWeaviate()

	var store *knowledge.Store
	var ingestor *knowledge.Ingestor
	if weaviateClient != nil {
		embedder, err := knowledge.NewEmbedder("")
		if err != nil {
			slog.Warn("Embedding service not configured, knowledge routes disabled", "error", err)
		} else {
			store = knowledge.NewStore(weaviateClient, embedder)
			ingestor = knowledge.NewIngestor(weaviateClient, embedder)
		}
	}

	log.Println("Configuring the LLM Client")
	modelName := ""
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		client, err := llm.NewOpenAIClient(os.Getenv("OPENAI_MODEL"))
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
		globalLLMClient, modelName = client, client.Model()
		slog.Info("Using OpenAI LLM backend")
	default:
		client, err := llm.NewOllamaClient("", "")
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
		globalLLMClient, modelName = client, client.Model()
		slog.Info("Using Ollama LLM backend")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to resolve home directory: %v", err)
	}
	counter, err := tokens.NewCounter(filepath.Join(home, ".caseforge", "token_usage_log.json"))
	if err != nil {
		slog.Warn("Token accounting disabled", "error", err)
		counter = nil
	}

	outputDir := os.Getenv("CASEFORGE_OUTPUT_DIR")
	if outputDir == "" {
		outputDir = filepath.Join(home, ".caseforge", "output")
	}

	deps := handlers.GenerateDeps{
		Client:    globalLLMClient,
		Store:     store,
		Counter:   counter,
		Writer:    output.NewWriter(outputDir),
		ModelName: modelName,
		Config:    generationConfig(),
	}

	// Optional: keep the index current as knowledge files change on disk.
	if watchDir := os.Getenv("CASEFORGE_WATCH_DIR"); watchDir != "" && ingestor != nil {
		watcher := knowledge.NewWatcher(ingestor, watchDir,
			os.Getenv("CASEFORGE_PROJECT"), "domain_doc")
		go func() {
			if err := watcher.Run(context.Background()); err != nil && err != context.Canceled {
				slog.Error("Knowledge watcher stopped", "error", err)
			}
		}()
	}

	// Optional: expire stale knowledge chunks after a retention window.
	if days := os.Getenv("CASEFORGE_RETENTION_DAYS"); days != "" && weaviateClient != nil {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			sweeper := knowledge.NewSweeper(weaviateClient, time.Duration(n)*24*time.Hour)
			go func() {
				if err := sweeper.Run(context.Background()); err != nil && err != context.Canceled {
					slog.Error("Retention sweeper stopped", "error", err)
				}
			}()
		} else {
			slog.Warn("Invalid CASEFORGE_RETENTION_DAYS, retention disabled", "value", days)
		}
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("caseforge-orchestrator"))
	routes.SetupRoutes(router, weaviateClient, ingestor, store, deps, os.Getenv("CASEFORGE_API_KEY"))

	log.Println("Starting the orchestrator server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func generationConfig() generator.Config {
	cfg := generator.Config{}
	if raw := os.Getenv("GENERATION_CHUNK_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.ChunkSize = n
		} else {
			slog.Warn("Invalid GENERATION_CHUNK_SIZE, using default", "value", raw)
		}
	}
	if raw := os.Getenv("GENERATION_CALLS_PER_SECOND"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			cfg.CallRate = rate.Limit(f)
		} else {
			slog.Warn("Invalid GENERATION_CALLS_PER_SECOND, using unpaced", "value", raw)
		}
	}
	return cfg
}
