// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the orchestrator.
//
// Metrics cover generation requests (counts, duration, chunk volume, model
// retries) and ingestion throughput. Exposed via the /metrics endpoint; all
// operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "caseforge"

const generationSubsystem = "generation"
const ingestionSubsystem = "ingestion"

// GenerationMetrics holds all Prometheus metrics for the test case pipeline.
type GenerationMetrics struct {
	// RequestsTotal counts generation requests by endpoint and status.
	// Labels: endpoint (api, cli), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// DurationSeconds measures end-to-end generation time.
	// Labels: status (success, error)
	DurationSeconds *prometheus.HistogramVec

	// ChunksTotal counts criteria chunks sent to the model.
	ChunksTotal prometheus.Counter

	// ModelAttemptsTotal counts model invocations by outcome.
	// Labels: outcome (success, retry, exhausted)
	ModelAttemptsTotal *prometheus.CounterVec

	// TokensTotal counts tokens by direction.
	// Labels: direction (prompt, completion)
	TokensTotal *prometheus.CounterVec

	// DocumentsIngestedTotal counts ingested documents by status.
	// Labels: status (success, error)
	DocumentsIngestedTotal *prometheus.CounterVec

	// ChunksIngestedTotal counts chunks stored in the vector index.
	ChunksIngestedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, initialized by InitMetrics().
var DefaultMetrics *GenerationMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// application startup.
func InitMetrics() *GenerationMetrics {
	DefaultMetrics = &GenerationMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "requests_total",
			Help:      "Total generation requests by endpoint and status",
		}, []string{"endpoint", "status"}),

		DurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "duration_seconds",
			Help:      "End-to-end generation duration",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"status"}),

		ChunksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "chunks_total",
			Help:      "Criteria chunks sent to the model",
		}),

		ModelAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "model_attempts_total",
			Help:      "Model invocations by outcome",
		}, []string{"outcome"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: generationSubsystem,
			Name:      "tokens_total",
			Help:      "Tokens processed by direction",
		}, []string{"direction"}),

		DocumentsIngestedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ingestionSubsystem,
			Name:      "documents_total",
			Help:      "Documents ingested by status",
		}, []string{"status"}),

		ChunksIngestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ingestionSubsystem,
			Name:      "chunks_total",
			Help:      "Chunks stored in the vector index",
		}),
	}
	return DefaultMetrics
}

// RecordGeneration records one completed generation request.
func (m *GenerationMetrics) RecordGeneration(endpoint, status string, seconds float64, chunks int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.DurationSeconds.WithLabelValues(status).Observe(seconds)
	m.ChunksTotal.Add(float64(chunks))
}

// RecordModelAttempt records one model invocation outcome: "success",
// "retry" (failed with attempts left), or "exhausted" (final failure).
func (m *GenerationMetrics) RecordModelAttempt(outcome string) {
	if m == nil {
		return
	}
	m.ModelAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokens records prompt/completion token usage for one request.
func (m *GenerationMetrics) RecordTokens(prompt, completion int) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	m.TokensTotal.WithLabelValues("completion").Add(float64(completion))
}

// RecordIngestion records one ingestion attempt.
func (m *GenerationMetrics) RecordIngestion(status string, chunks int) {
	if m == nil {
		return
	}
	m.DocumentsIngestedTotal.WithLabelValues(status).Inc()
	m.ChunksIngestedTotal.Add(float64(chunks))
}
