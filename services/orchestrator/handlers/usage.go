// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseforge-ai/caseforge/pkg/tokens"
)

// UsageStats handles GET /v1/usage: the running token totals and cost
// estimates from the usage log. counter may be nil when usage accounting
// is disabled.
func UsageStats(counter *tokens.Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage accounting is disabled"})
			return
		}
		stats, err := counter.GetUsageStats()
		if err != nil {
			slog.Error("Failed to read usage stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
