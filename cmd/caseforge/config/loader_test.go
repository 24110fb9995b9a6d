// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:12210", cfg.Orchestrator.URL)
	assert.Equal(t, "ollama", cfg.ModelBackend.Type)
	assert.Equal(t, 5, cfg.Generation.ChunkSize)
	assert.True(t, cfg.Generation.UseKnowledge)
}

func TestDefaultConfig_RoundTripsThroughYAML(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var parsed CaseForgeConfig
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, DefaultConfig(), parsed)
}

func TestWriteDefault_WritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "caseforge.yaml")
	require.NoError(t, writeDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed CaseForgeConfig
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, DefaultConfig(), parsed)
}

func TestResolve_FirstRunCreatesFileWithDefaults(t *testing.T) {
	t.Setenv("CASEFORGE_ORCHESTRATOR_URL", "")
	t.Setenv("CASEFORGE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "caseforge.yaml")

	cfg, err := resolve(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)
}

func TestResolve_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("CASEFORGE_ORCHESTRATOR_URL", "")
	t.Setenv("CASEFORGE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "caseforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestrator:\n  url: http://forge.internal:9000\n"), 0644))

	cfg, err := resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "http://forge.internal:9000", cfg.Orchestrator.URL)
	// Unlisted sections stay at their defaults.
	assert.Equal(t, "ollama", cfg.ModelBackend.Type)
	assert.Equal(t, 5, cfg.Generation.ChunkSize)
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestrator:\n  url: http://from-file:1\n  api_key: file-key\n"), 0644))
	t.Setenv("CASEFORGE_ORCHESTRATOR_URL", "http://from-env:2")
	t.Setenv("CASEFORGE_API_KEY", "env-key")

	cfg, err := resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:2", cfg.Orchestrator.URL)
	assert.Equal(t, "env-key", cfg.Orchestrator.APIKey)
}

func TestResolve_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestrator: [not a mapping"), 0644))

	_, err := resolve(path)
	require.Error(t, err)
}
