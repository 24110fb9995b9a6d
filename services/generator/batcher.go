// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

// DefaultChunkSize bounds how many criteria are sent to the model in a
// single prompt.
const DefaultChunkSize = 5

// GenerationChunk is a contiguous group of criteria for one model call.
// PreviousCriteria carries every criterion from earlier chunks, in order, as
// disambiguation context only: the model is told not to re-test them, and the
// reconciler never re-emits them.
type GenerationChunk struct {
	Criteria         []AtomicCriterion
	PreviousCriteria []AtomicCriterion
}

// ChunkCriteria partitions criteria into contiguous chunks of at most size
// items. The final chunk may be smaller. Order is preserved, and chunk i
// carries the criteria of chunks 0..i-1 as PreviousCriteria.
func ChunkCriteria(criteria []AtomicCriterion, size int) []GenerationChunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks []GenerationChunk
	for start := 0; start < len(criteria); start += size {
		end := start + size
		if end > len(criteria) {
			end = len(criteria)
		}
		chunks = append(chunks, GenerationChunk{
			Criteria:         criteria[start:end],
			PreviousCriteria: criteria[:start],
		})
	}
	return chunks
}
