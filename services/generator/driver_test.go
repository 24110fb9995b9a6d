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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge-ai/caseforge/services/llm"
)

// mockLLM scripts model behavior per call: the first failBefore calls fail,
// the rest return response (or a per-call marker when response is empty).
type mockLLM struct {
	response   string
	failBefore int
	calls      int
	prompts    []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.calls <= m.failBefore {
		return "", errors.New("model backend unavailable")
	}
	if m.response != "" {
		return m.response, nil
	}
	return fmt.Sprintf("output for call %d", m.calls), nil
}

func passthroughAssemble(chunk GenerationChunk) (string, error) {
	return fmt.Sprintf("prompt for criteria starting at %d", chunk.Criteria[0].Index), nil
}

func TestDriverRun_JoinsChunkOutputsInOrder(t *testing.T) {
	mock := &mockLLM{}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(12), 5)

	out, err := driver.Run(context.Background(), chunks, passthroughAssemble)
	require.NoError(t, err)

	assert.Equal(t, "output for call 1\n\noutput for call 2\n\noutput for call 3", out)
	assert.Equal(t, 3, mock.calls)
	// One prompt per chunk, in chunk order.
	require.Len(t, mock.prompts, 3)
	assert.Equal(t, "prompt for criteria starting at 1", mock.prompts[0])
	assert.Equal(t, "prompt for criteria starting at 11", mock.prompts[2])
}

func TestDriverRun_RetriesThenSucceeds(t *testing.T) {
	mock := &mockLLM{failBefore: 2}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(2), 5)

	out, err := driver.Run(context.Background(), chunks, passthroughAssemble)
	require.NoError(t, err)

	assert.Equal(t, "output for call 3", out)
	assert.Equal(t, 3, mock.calls)
}

func TestDriverRun_ExhaustedAttempts(t *testing.T) {
	mock := &mockLLM{failBefore: 1000}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(2), 5)

	out, err := driver.Run(context.Background(), chunks, passthroughAssemble)
	require.Error(t, err)

	assert.Empty(t, out)
	assert.True(t, IsGenerationError(err))
	assert.Equal(t, maxGenerationAttempts, mock.calls)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 0, genErr.Chunk)
	assert.Equal(t, maxGenerationAttempts, genErr.Attempts)
}

func TestDriverRun_FailureStopsLaterChunks(t *testing.T) {
	mock := &mockLLM{failBefore: 1000}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(12), 5)

	_, err := driver.Run(context.Background(), chunks, passthroughAssemble)
	require.Error(t, err)

	// Only the first chunk's attempts were spent; no partial output is built
	// from chunks past the failure.
	assert.Equal(t, maxGenerationAttempts, mock.calls)
}

func TestDriverRun_ReportsAttemptOutcomes(t *testing.T) {
	var outcomes []string
	record := func(outcome string) { outcomes = append(outcomes, outcome) }

	mock := &mockLLM{failBefore: 2}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, record)
	chunks := ChunkCriteria(makeCriteria(2), 5)

	_, err := driver.Run(context.Background(), chunks, passthroughAssemble)
	require.NoError(t, err)
	assert.Equal(t, []string{"retry", "retry", "success"}, outcomes)

	outcomes = nil
	mock = &mockLLM{failBefore: 1000}
	driver = NewDriver(mock, llm.GenerationParams{}, 0, record)

	_, err = driver.Run(context.Background(), chunks, passthroughAssemble)
	require.Error(t, err)
	assert.Equal(t, []string{"retry", "retry", "exhausted"}, outcomes)
}

func TestDriverRun_AssembleErrorSkipsModelCall(t *testing.T) {
	mock := &mockLLM{}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(2), 5)

	wantErr := errors.New("template broke")
	_, err := driver.Run(context.Background(), chunks, func(GenerationChunk) (string, error) {
		return "", wantErr
	})

	require.ErrorIs(t, err, wantErr)
	assert.Zero(t, mock.calls)
	assert.False(t, IsGenerationError(err))
}

func TestDriverRun_CancelledContext(t *testing.T) {
	mock := &mockLLM{failBefore: 1000}
	driver := NewDriver(mock, llm.GenerationParams{}, 0, nil)
	chunks := ChunkCriteria(makeCriteria(1), 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.Run(ctx, chunks, passthroughAssemble)
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
}

func TestIsGenerationError(t *testing.T) {
	assert.True(t, IsGenerationError(&GenerationError{Chunk: 1, Attempts: 3, Err: errors.New("x")}))
	assert.True(t, IsGenerationError(fmt.Errorf("wrapped: %w", &GenerationError{})))
	assert.False(t, IsGenerationError(errors.New("plain")))
	assert.False(t, IsGenerationError(nil))
}
