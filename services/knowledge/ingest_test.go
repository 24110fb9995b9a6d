// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID_DeterministicPerContent(t *testing.T) {
	id1 := chunkID("the same chunk content")
	id2 := chunkID("the same chunk content")
	id3 := chunkID("different content")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)

	_, err := uuid.Parse(id1)
	require.NoError(t, err)
}

func TestGetSplitterForFile_SplitsGherkinOnScenarios(t *testing.T) {
	splitter := getSplitterForFile("checkout.feature")

	doc := "Feature: Checkout\n" +
		"Scenario: pay with card\n  Given a cart\n  When I pay\n  Then it succeeds\n" +
		"Scenario: pay with voucher\n  Given a cart\n  When I redeem\n  Then it succeeds\n"
	chunks, err := splitter.SplitText(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), CHUNK_SIZE)
	}
}

func TestGetSplitterForFile_DefaultForUnknownExtension(t *testing.T) {
	splitter := getSplitterForFile("notes.txt")
	chunks, err := splitter.SplitText("short document")
	require.NoError(t, err)
	assert.Equal(t, []string{"short document"}, chunks)
}

func TestExpiryCutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := expiryCutoff(now, 30*24*time.Hour)
	assert.Equal(t, now.Add(-30*24*time.Hour).UnixMilli(), cutoff)
	assert.Less(t, cutoff, now.UnixMilli())
}
