// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge-ai/caseforge/pkg/output"
	"github.com/caseforge-ai/caseforge/services/llm"
	"github.com/caseforge-ai/caseforge/services/orchestrator/datatypes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockLLMClient returns canned output, or an error when Fail is set.
type MockLLMClient struct {
	Response string
	Fail     bool
	Calls    int
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.Calls++
	if m.Fail {
		return "", fmt.Errorf("model backend unavailable")
	}
	return m.Response, nil
}

const mockModelOutput = `## Positive Test Cases
### AC 1
- Acceptance Criteria: User can log in
- Test case Title: Verify login with valid credentials
- Steps:
  1. Open the login page
  2. Submit valid credentials
- Expected Result: User lands on the dashboard

## Negative Test Cases
### AC 1
- Test case Title: Validate login rejection with bad password
- Steps:
  1. Submit an invalid password
- Expected Result: An error message is shown
`

func performGenerate(t *testing.T, deps GenerateDeps, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/v1/generate", GenerateTestCases(deps))

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateTestCases_Success(t *testing.T) {
	mock := &MockLLMClient{Response: mockModelOutput}
	deps := GenerateDeps{
		Client:    mock,
		Writer:    output.NewWriter(t.TempDir()),
		ModelName: "test-model",
	}

	w := performGenerate(t, deps, datatypes.GenerateTestCasesRequest{
		Description:        "As a user I want to log in",
		AcceptanceCriteria: "User can log in with valid credentials.",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.GenerateTestCasesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.TestCases, "## Positive Test Cases")
	assert.Contains(t, resp.TestCases, "## Negative Test Cases")
	assert.Equal(t, "test-model", resp.Metadata.Model)
	assert.Equal(t, 1, resp.Metadata.CriteriaCount)
	assert.Equal(t, 1, resp.Metadata.ChunkCount)
	assert.False(t, resp.Metadata.KnowledgeUsed)
	assert.NotEmpty(t, resp.OutputFile)
}

func TestGenerateTestCases_MissingFields(t *testing.T) {
	deps := GenerateDeps{Client: &MockLLMClient{Response: mockModelOutput}}

	w := performGenerate(t, deps, datatypes.GenerateTestCasesRequest{
		Description: "missing acceptance criteria",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateTestCases_InvalidJSON(t *testing.T) {
	deps := GenerateDeps{Client: &MockLLMClient{Response: mockModelOutput}}
	router := gin.New()
	router.POST("/v1/generate", GenerateTestCases(deps))

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateTestCases_ModelExhausted(t *testing.T) {
	mock := &MockLLMClient{Fail: true}
	deps := GenerateDeps{Client: mock}

	w := performGenerate(t, deps, datatypes.GenerateTestCasesRequest{
		Description:        "story",
		AcceptanceCriteria: "One criterion.",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	// Bounded retry: one chunk, three attempts.
	assert.Equal(t, 3, mock.Calls)
}

func TestGenerateTestCases_CriteriaOverride(t *testing.T) {
	mock := &MockLLMClient{Response: mockModelOutput}
	deps := GenerateDeps{Client: mock}

	w := performGenerate(t, deps, datatypes.GenerateTestCasesRequest{
		Description:        "story",
		AcceptanceCriteria: "ignored when override is present",
		Criteria: []string{
			"first criterion", "second criterion", "third criterion",
			"fourth criterion", "fifth criterion", "sixth criterion",
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.GenerateTestCasesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Metadata.CriteriaCount)
	// Six criteria at the default chunk size of five means two model calls.
	assert.Equal(t, 2, resp.Metadata.ChunkCount)
	assert.Equal(t, 2, mock.Calls)
}
