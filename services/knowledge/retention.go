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
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
)

// defaultSweepInterval is how often the sweeper re-checks the index between
// retention deletions. Expiry precision is bounded by this interval.
const defaultSweepInterval = time.Hour

// Sweeper deletes knowledge chunks whose ingestion timestamp has aged past
// the retention window. Stale domain documents degrade generation quality,
// so bounded retention keeps the index aligned with what the team still
// maintains.
type Sweeper struct {
	client    *weaviate.Client
	retention time.Duration
	interval  time.Duration
}

// NewSweeper builds a retention sweeper. retention must be positive; the
// sweep interval defaults to one hour.
func NewSweeper(client *weaviate.Client, retention time.Duration) *Sweeper {
	return &Sweeper{
		client:    client,
		retention: retention,
		interval:  defaultSweepInterval,
	}
}

// Run sweeps immediately and then on every interval tick until the context
// is cancelled. Individual sweep failures are logged and retried on the next
// tick rather than stopping the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	slog.Info("Starting knowledge retention sweeper",
		"retention", s.retention, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if deleted, err := s.SweepOnce(ctx); err != nil {
			slog.Error("Retention sweep failed", "error", err)
		} else if deleted > 0 {
			slog.Info("Retention sweep removed expired chunks", "deleted", deleted)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce batch-deletes every chunk ingested before the retention cutoff
// and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	where := filters.Where().
		WithPath([]string{"ingested_at"}).
		WithOperator(filters.LessThan).
		WithValueInt(expiryCutoff(time.Now(), s.retention))

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(ChunkClass).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("retention delete failed for %s: %w", ChunkClass, err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	if resp.Results.Failed > 0 {
		slog.Warn("Some expired chunks could not be deleted",
			"failed", resp.Results.Failed, "successful", resp.Results.Successful)
	}
	return int(resp.Results.Successful), nil
}

// expiryCutoff returns the ingested_at threshold (unix millis) below which a
// chunk is expired.
func expiryCutoff(now time.Time, retention time.Duration) int64 {
	return now.Add(-retention).UnixMilli()
}
