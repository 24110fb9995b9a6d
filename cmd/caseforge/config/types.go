// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

type CaseForgeConfig struct {
	// Orchestrator: where the API server lives
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// ModelBackend: decides if you want local or cloud
	ModelBackend BackendConfig `yaml:"model_backend"`

	// Generation: pipeline tuning
	Generation GenerationConfig `yaml:"generation"`

	// Output: where generated documents land
	Output OutputConfig `yaml:"output"`
}

type OrchestratorConfig struct {
	URL string `yaml:"url"` // e.g. http://localhost:12210

	// APIKey is sent as a bearer token when the server enforces one.
	APIKey string `yaml:"api_key,omitempty"`
}

type BackendConfig struct {
	// Type can be "ollama" or "openai"
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type GenerationConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	UseKnowledge bool `yaml:"use_knowledge"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() CaseForgeConfig {
	return CaseForgeConfig{
		Orchestrator: OrchestratorConfig{URL: "http://localhost:12210"},
		ModelBackend: BackendConfig{Type: "ollama"},
		Generation:   GenerationConfig{ChunkSize: 5, UseKnowledge: true},
		Output:       OutputConfig{Dir: "test_cases"},
	}
}
