// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"

	"github.com/google/uuid"

	"studynotes/internal/cache"
	"studynotes/internal/store"
)

// Invalidator clears the public page cache after a write and records the
// event in the cache invalidation log. Every page lists categories or
// articles, so any write drops the whole cache.
type Invalidator struct {
	pages *cache.PageCache
	log   *store.CacheLogStore
}

// NewInvalidator creates an Invalidator. Either dependency may be nil.
func NewInvalidator(pages *cache.PageCache, log *store.CacheLogStore) *Invalidator {
	return &Invalidator{pages: pages, log: log}
}

// Invalidate drops all cached pages after action on the given entity.
func (inv *Invalidator) Invalidate(ctx context.Context, entityType string, id uuid.UUID, action string) {
	if inv == nil {
		return
	}
	if inv.pages != nil {
		inv.pages.InvalidateAll(ctx)
	}
	if inv.log != nil {
		inv.log.Log(ctx, entityType, id, action)
	}
}
