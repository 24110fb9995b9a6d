// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCriteria(n int) []AtomicCriterion {
	criteria := make([]AtomicCriterion, n)
	for i := range criteria {
		criteria[i] = AtomicCriterion{Index: i + 1, Text: fmt.Sprintf("criterion %d", i+1)}
	}
	return criteria
}

func TestChunkCriteria_PartitionSizes(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(12), 5)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Criteria, 5)
	assert.Len(t, chunks[1].Criteria, 5)
	assert.Len(t, chunks[2].Criteria, 2)
}

func TestChunkCriteria_PreviousCriteriaAccumulate(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(12), 5)

	require.Len(t, chunks, 3)
	assert.Empty(t, chunks[0].PreviousCriteria)
	assert.Len(t, chunks[1].PreviousCriteria, 5)
	assert.Len(t, chunks[2].PreviousCriteria, 10)

	// Previous criteria are exactly the earlier chunks' items, in order.
	assert.Equal(t, chunks[0].Criteria, chunks[1].PreviousCriteria)
	assert.Equal(t, 1, chunks[2].PreviousCriteria[0].Index)
	assert.Equal(t, 10, chunks[2].PreviousCriteria[9].Index)
}

func TestChunkCriteria_PreservesGlobalIndices(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(7), 5)

	require.Len(t, chunks, 2)
	assert.Equal(t, 6, chunks[1].Criteria[0].Index)
	assert.Equal(t, 7, chunks[1].Criteria[1].Index)
}

func TestChunkCriteria_ExactMultiple(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(10), 5)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[1].Criteria, 5)
}

func TestChunkCriteria_FewerThanOneChunk(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(3), 5)

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0].Criteria, 3)
	assert.Empty(t, chunks[0].PreviousCriteria)
}

func TestChunkCriteria_ZeroSizeFallsBackToDefault(t *testing.T) {
	chunks := ChunkCriteria(makeCriteria(6), 0)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Criteria, DefaultChunkSize)
}

func TestChunkCriteria_Empty(t *testing.T) {
	assert.Empty(t, ChunkCriteria(nil, 5))
}
