// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entity types recorded in the invalidation log.
const (
	EntityCategory = "category"
	EntityArticle  = "article"
	EntitySite     = "site"
)

// Actions recorded in the invalidation log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSeed   = "seed"
	ActionImport = "import"
)

// CacheLogRetention is how long invalidation events are kept by default.
const CacheLogRetention = 30 * 24 * time.Hour

// CacheLogEntry is one page cache invalidation.
type CacheLogEntry struct {
	ID            int64
	EntityType    string
	EntityID      *uuid.UUID
	Action        string
	InvalidatedAt time.Time
}

// CacheLogStore keeps the history of page cache invalidations shown on
// the admin dashboard.
type CacheLogStore struct {
	db *sql.DB
}

// NewCacheLogStore returns a CacheLogStore on db.
func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log records an invalidation caused by action on an entity. Site-wide
// events pass uuid.Nil. The log is informational, so a failed insert is
// only reported in the application log.
func (s *CacheLogStore) Log(ctx context.Context, entityType string, entityID uuid.UUID, action string) {
	var id *uuid.UUID
	if entityID != uuid.Nil {
		id = &entityID
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_invalidation_log (entity_type, entity_id, action) VALUES ($1, $2, $3)`,
		entityType, id, action,
	); err != nil {
		slog.Warn("cache log insert failed", "entity_type", entityType, "entity_id", entityID, "action", action, "error", err)
	}
}

// RecentEntries returns up to limit events, newest first.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, invalidated_at
		FROM cache_invalidation_log
		ORDER BY invalidated_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	entries := make([]CacheLogEntry, 0, limit)
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes events older than maxAge and returns how many went.
func (s *CacheLogStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_invalidation_log WHERE invalidated_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("prune cache log: %w", err)
	}
	return res.RowsAffected()
}

// RunPruner prunes the log every interval until ctx is done.
func (s *CacheLogStore) RunPruner(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx, maxAge)
			if err != nil {
				slog.Warn("cache log prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("cache log pruned", "deleted", n)
			}
		}
	}
}
