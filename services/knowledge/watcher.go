// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow suppresses the duplicate events editors fire on save.
const debounceWindow = 2 * time.Second

var watchedExtensions = map[string]bool{
	".md":      true,
	".txt":     true,
	".feature": true,
}

// Watcher re-ingests knowledge files as they change on disk, keeping the
// vector index current without manual re-runs.
type Watcher struct {
	ingestor   *Ingestor
	dir        string
	dataSpace  string
	versionTag string

	lastSeen map[string]time.Time
}

func NewWatcher(ingestor *Ingestor, dir, dataSpace, versionTag string) *Watcher {
	return &Watcher{
		ingestor:   ingestor,
		dir:        dir,
		dataSpace:  dataSpace,
		versionTag: versionTag,
		lastSeen:   make(map[string]time.Time),
	}
}

// Run watches the directory until the context is canceled. Ingestion failures
// for individual files are logged, not fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	slog.Info("Watching knowledge directory", "dir", w.dir, "data_space", w.dataSpace)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.handleChange(ctx, event.Name)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Filesystem watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleChange(ctx context.Context, path string) {
	if !watchedExtensions[filepath.Ext(path)] {
		return
	}
	if last, ok := w.lastSeen[path]; ok && time.Since(last) < debounceWindow {
		return
	}
	w.lastSeen[path] = time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read changed file", "path", path, "error", err)
		return
	}
	chunks, err := w.ingestor.Ingest(ctx, IngestRequest{
		Content:    string(content),
		Source:     filepath.Base(path),
		DataSpace:  w.dataSpace,
		VersionTag: w.versionTag,
	})
	if err != nil {
		slog.Error("Failed to re-ingest changed file", "path", path, "error", err)
		return
	}
	slog.Info("Re-ingested changed file", "path", path, "chunks", chunks)
}
