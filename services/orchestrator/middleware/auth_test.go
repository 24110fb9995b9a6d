// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(key string) *gin.Engine {
	router := gin.New()
	router.Use(APIKeyAuth(key))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func ping(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth_DisabledWhenNoKeyConfigured(t *testing.T) {
	router := protectedRouter("")

	assert.Equal(t, http.StatusOK, ping(router, "").Code)
	assert.Equal(t, http.StatusOK, ping(router, "Bearer anything").Code)
}

func TestAPIKeyAuth_AcceptsMatchingKey(t *testing.T) {
	router := protectedRouter("secret-key")

	assert.Equal(t, http.StatusOK, ping(router, "Bearer secret-key").Code)
	// Scheme matching is case-insensitive.
	assert.Equal(t, http.StatusOK, ping(router, "bearer secret-key").Code)
}

func TestAPIKeyAuth_RejectsBadOrMissingKey(t *testing.T) {
	router := protectedRouter("secret-key")

	assert.Equal(t, http.StatusUnauthorized, ping(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, ping(router, "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, ping(router, "Basic secret-key").Code)
	assert.Equal(t, http.StatusUnauthorized, ping(router, "secret-key").Code)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer   spaced  ", "spaced"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(c), "header %q", tt.header)
	}
}
