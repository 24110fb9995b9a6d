// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/caseforge-ai/caseforge/services/llm"
)

var driverTracer = otel.Tracer("caseforge.generator.driver")

// Driver invocation limits. Attempts are independent: no partial output is
// carried between retries, and a success short-circuits the rest.
const (
	maxGenerationAttempts = 3
	retryDelay            = 2 * time.Second
)

// GenerationError is the hard failure of the pipeline: the model failed all
// attempts for one chunk. Later chunks depend on strict chunk ordering and
// criterion-index continuity, so no partial result is returned.
type GenerationError struct {
	Chunk    int
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for chunk %d after %d attempts: %v", e.Chunk, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError checks if an error is a *GenerationError. Handlers use
// this to map pipeline exhaustion to a 503 instead of a generic 500.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// Driver invokes the model once per chunk, in order, and concatenates the
// raw outputs with a blank-line separator. Chunks are never processed
// concurrently: the reconciler's implicit AC numbering relies on global
// criterion indices increasing monotonically through the combined text.
type Driver struct {
	client    llm.LLMClient
	params    llm.GenerationParams
	limiter   *rate.Limiter
	onAttempt func(outcome string)
}

// NewDriver wraps the LLM client with the bounded-retry policy. calls is the
// sustained request rate toward the model backend; zero disables pacing.
// onAttempt, when non-nil, receives the outcome of every model invocation:
// "success", "retry", or "exhausted".
func NewDriver(client llm.LLMClient, params llm.GenerationParams, calls rate.Limit, onAttempt func(outcome string)) *Driver {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if calls > 0 {
		limiter = rate.NewLimiter(calls, 1)
	}
	return &Driver{client: client, params: params, limiter: limiter, onAttempt: onAttempt}
}

func (d *Driver) observe(outcome string) {
	if d.onAttempt != nil {
		d.onAttempt(outcome)
	}
}

// Run generates raw output for every chunk and joins the results in chunk
// order. assemble is called lazily per chunk so a prompt failure surfaces
// before any model call for that chunk.
func (d *Driver) Run(ctx context.Context, chunks []GenerationChunk, assemble func(GenerationChunk) (string, error)) (string, error) {
	ctx, span := driverTracer.Start(ctx, "Driver.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("generation.chunks", len(chunks)))

	outputs := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt, err := assemble(chunk)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "prompt assembly failed")
			return "", err
		}
		output, err := d.runChunk(ctx, i, prompt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chunk generation failed")
			return "", err
		}
		outputs = append(outputs, output)
	}
	return strings.Join(outputs, "\n\n"), nil
}

func (d *Driver) runChunk(ctx context.Context, chunkIndex int, prompt string) (string, error) {
	ctx, span := driverTracer.Start(ctx, "Driver.runChunk")
	defer span.End()
	span.SetAttributes(attribute.Int("generation.chunk_index", chunkIndex))

	var lastErr error
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		if attempt > 1 {
			slog.Warn("Retrying chunk generation",
				"chunk", chunkIndex, "attempt", attempt, "lastError", lastErr)
			select {
			case <-ctx.Done():
				return "", &GenerationError{Chunk: chunkIndex, Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(retryDelay):
			}
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return "", &GenerationError{Chunk: chunkIndex, Attempts: attempt - 1, Err: err}
		}
		output, err := d.client.Generate(ctx, prompt, d.params)
		if err == nil {
			d.observe("success")
			span.SetAttributes(attribute.Int("generation.attempts", attempt))
			return output, nil
		}
		lastErr = err
		if attempt < maxGenerationAttempts {
			d.observe("retry")
		} else {
			d.observe("exhausted")
		}
		slog.Error("LLM invocation failed", "chunk", chunkIndex, "attempt", attempt, "error", err)
	}
	return "", &GenerationError{Chunk: chunkIndex, Attempts: maxGenerationAttempts, Err: lastErr}
}
