// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initOnce sync.Once

// Prometheus registration is global, so the metrics instance is shared
// across tests.
func testMetrics(t *testing.T) *GenerationMetrics {
	t.Helper()
	initOnce.Do(func() { InitMetrics() })
	require.NotNil(t, DefaultMetrics)
	return DefaultMetrics
}

func TestRecordGeneration(t *testing.T) {
	m := testMetrics(t)
	before := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("api", "success"))
	m.RecordGeneration("api", "success", 12.5, 3)
	after := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("api", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordTokens(t *testing.T) {
	m := testMetrics(t)
	before := testutil.ToFloat64(m.TokensTotal.WithLabelValues("prompt"))
	m.RecordTokens(100, 250)
	assert.Equal(t, before+100, testutil.ToFloat64(m.TokensTotal.WithLabelValues("prompt")))
}

func TestRecordIngestion(t *testing.T) {
	m := testMetrics(t)
	before := testutil.ToFloat64(m.DocumentsIngestedTotal.WithLabelValues("success"))
	m.RecordIngestion("success", 7)
	assert.Equal(t, before+1, testutil.ToFloat64(m.DocumentsIngestedTotal.WithLabelValues("success")))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *GenerationMetrics
	// Handlers call through DefaultMetrics before InitMetrics in some tests;
	// nil must be a no-op, not a panic.
	m.RecordGeneration("api", "error", 1, 0)
	m.RecordTokens(1, 1)
	m.RecordIngestion("error", 0)
}
