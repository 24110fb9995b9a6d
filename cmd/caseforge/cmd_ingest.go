// Copyright (C) 2025 CaseForge AI (dev@caseforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var ingestableExtensions = map[string]bool{
	".md":      true,
	".txt":     true,
	".feature": true,
	".csv":     true,
}

func runIngest(cmd *cobra.Command, args []string) {
	files, err := collectFiles(args)
	if err != nil {
		log.Fatalf("Failed to scan input paths: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No ingestable files found (supported: .md .txt .feature .csv)")
	}
	fmt.Fprintf(os.Stderr, "Ingesting %d file(s) with %d workers\n", len(files), numWorkers)

	var ingested atomic.Int64
	group, _ := errgroup.WithContext(context.Background())
	group.SetLimit(numWorkers)
	for _, file := range files {
		group.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				log.Printf("Could not read file %s: %v", file, err)
				return nil // keep going; one bad file shouldn't stop the batch
			}
			payload := map[string]string{
				"source":      filepath.Base(file),
				"content":     string(content),
				"data_space":  dataSpace,
				"version_tag": versionTag,
			}
			var resp struct {
				ChunksProcessed int `json:"chunks_processed"`
			}
			if err := postJSON("/v1/documents", payload, &resp); err != nil {
				log.Printf("Failed to ingest %s: %v", file, err)
				return nil
			}
			fmt.Fprintf(os.Stderr, "Ingested %s (chunks: %d)\n", file, resp.ChunksProcessed)
			ingested.Add(1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatalf("Ingestion aborted: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Done: %d/%d file(s) ingested\n", ingested.Load(), len(files))
}

// collectFiles expands the argument list into ingestable files, walking
// directories recursively.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if ingestableExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingestableExtensions[strings.ToLower(filepath.Ext(p))] {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
