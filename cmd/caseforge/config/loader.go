// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global CaseForgeConfig
	once   sync.Once
)

// Load populates Global exactly once: defaults first, then the user's
// config file layered on top, then environment overrides. A missing file
// is written with the defaults so the user has something to edit.
func Load() error {
	var err error
	once.Do(func() {
		var path string
		path, err = configPath()
		if err != nil {
			return
		}
		Global, err = resolve(path)
	})
	return err
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".caseforge", "caseforge.yaml"), nil
}

// resolve builds the effective config from path. Fields absent from the
// file keep their defaults, so a partial file is valid.
func resolve(path string) (CaseForgeConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		fmt.Printf(" First run detected, creating the config at %s\n", path)
		if err := writeDefault(path); err != nil {
			return cfg, err
		}
	case err != nil:
		return cfg, fmt.Errorf("failed to read the config file %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse the config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *CaseForgeConfig) {
	if url := os.Getenv("CASEFORGE_ORCHESTRATOR_URL"); url != "" {
		cfg.Orchestrator.URL = url
	}
	if key := os.Getenv("CASEFORGE_API_KEY"); key != "" {
		cfg.Orchestrator.APIKey = key
	}
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
