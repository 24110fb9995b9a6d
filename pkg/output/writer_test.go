// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir)

	path, err := w.Save("## Positive Test Cases\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_cases_"))
	assert.True(t, strings.HasSuffix(path, ".md"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "## Positive Test Cases\n", string(content))
}

func TestWriter_SaveNamed(t *testing.T) {
	w := NewWriter(t.TempDir())
	path, err := w.SaveNamed("login_story", "doc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "login_story_"))
}
