// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

func TestPackChunks_RespectsBudget(t *testing.T) {
	results := []datatypes.SearchResult{
		{Content: strings.Repeat("a", 100)},
		{Content: strings.Repeat("b", 100)},
		{Content: strings.Repeat("c", 100)},
	}

	packed := packChunks(results, 220)

	// The third chunk would overflow 220 bytes of content.
	assert.Contains(t, packed, "aaa")
	assert.Contains(t, packed, "bbb")
	assert.NotContains(t, packed, "ccc")
	assert.Equal(t, 2, len(strings.Split(packed, "\n\n")))
}

func TestPackChunks_FirstChunkAlwaysAdmitted(t *testing.T) {
	results := []datatypes.SearchResult{
		{Content: strings.Repeat("x", 5000)},
	}
	packed := packChunks(results, 100)
	assert.Len(t, packed, 5000)
}

func TestPackChunks_SkipsEmptyContent(t *testing.T) {
	results := []datatypes.SearchResult{
		{Content: "   "},
		{Content: "real content"},
	}
	assert.Equal(t, "real content", packChunks(results, 1000))
}

func TestPackChunks_NoResults(t *testing.T) {
	assert.Equal(t, "", packChunks(nil, 1000))
}

func TestParseGraphQL_TypedRoundTrip(t *testing.T) {
	certainty := 0.87
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"KnowledgeChunk": []interface{}{
					map[string]interface{}{
						"content":       "chunk text",
						"parent_source": "guide.md",
						"_additional":   map[string]interface{}{"certainty": certainty},
					},
				},
			},
		},
	}

	parsed, err := parseGraphQL[chunkQueryResponse](resp)
	require.NoError(t, err)

	require.Len(t, parsed.Get.KnowledgeChunk, 1)
	chunk := parsed.Get.KnowledgeChunk[0]
	assert.Equal(t, "chunk text", chunk.Content)
	assert.Equal(t, "guide.md", chunk.Source)
	require.NotNil(t, chunk.Additional.Certainty)
	assert.InDelta(t, 0.87, *chunk.Additional.Certainty, 1e-9)
}

func TestParseGraphQL_NilResponse(t *testing.T) {
	_, err := parseGraphQL[chunkQueryResponse](nil)
	assert.Error(t, err)
}

func TestForDataSpace_ScopesACopy(t *testing.T) {
	base := NewStore(nil, nil)
	scoped := base.ForDataSpace("team-payments")

	assert.Equal(t, "team-payments", scoped.dataSpace)
	assert.Empty(t, base.dataSpace)
}

func TestIsRetrievalError(t *testing.T) {
	err := &RetrievalError{Query: "q", Err: errors.New("down")}
	assert.True(t, IsRetrievalError(err))
	assert.True(t, IsRetrievalError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsRetrievalError(errors.New("plain")))
	assert.ErrorContains(t, err, "q")
}
