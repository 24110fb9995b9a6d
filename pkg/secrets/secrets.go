// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package secrets loads API credentials into memguard enclaves so plaintext
// keys never sit in ordinary heap memory longer than needed.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/awnumar/memguard"
)

// Load reads a secret from the named environment variable, falling back to
// filePath (a container secret mount). The environment copy is unset after a
// successful read.
func Load(envVar, filePath string) (*memguard.Enclave, error) {
	if v := os.Getenv(envVar); v != "" {
		enclave := memguard.NewEnclave([]byte(strings.TrimSpace(v)))
		os.Unsetenv(envVar)
		return enclave, nil
	}
	if filePath != "" {
		raw, err := os.ReadFile(filePath)
		if err == nil {
			return memguard.NewEnclave([]byte(strings.TrimSpace(string(raw)))), nil
		}
	}
	return nil, fmt.Errorf("secret %s not found in environment or at %s", envVar, filePath)
}

// Reveal opens the enclave and hands the plaintext to fn. The unlocked buffer
// is destroyed when fn returns.
func Reveal(enclave *memguard.Enclave, fn func(secret string) error) error {
	buf, err := enclave.Open()
	if err != nil {
		return fmt.Errorf("failed to open secret enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.String())
}
