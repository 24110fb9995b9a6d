// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge-ai/caseforge/pkg/tokens"
)

func TestUsageStats_DisabledWithoutCounter(t *testing.T) {
	router := gin.New()
	router.GET("/v1/usage", UsageStats(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUsageStats_ReturnsRunningTotals(t *testing.T) {
	counter, err := tokens.NewCounter(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)
	_, err = counter.LogRequest("test_case_generation", "a prompt", "a completion", nil)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/v1/usage", UsageStats(counter))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats tokens.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.NumRequests)
	assert.Positive(t, stats.TotalTokens)
	assert.Contains(t, stats.EstimatedCosts, "gpt4")
}
