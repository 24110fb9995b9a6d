// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package output persists generated test case documents to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer saves documents under a directory with timestamped names so
// successive runs never overwrite each other.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Save writes the document as test_cases_{timestamp}.md and returns the
// full path. The directory is created on first use.
func (w *Writer) Save(document string) (string, error) {
	return w.SaveNamed("test_cases", document)
}

// SaveNamed is Save with a caller-chosen filename prefix.
func (w *Writer) SaveNamed(prefix, document string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}
	name := fmt.Sprintf("%s_%s.md", prefix, time.Now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
