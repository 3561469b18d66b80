// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix = "page:"

	// generationKey holds a counter that is part of every page key.
	// Bumping it orphans all cached pages at once; they expire on their TTL.
	generationKey = pageKeyPrefix + "generation"

	homeKey = "home"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores rendered public HTML in Valkey, keyed by URL path.
// Every failure is logged and treated as a miss so the site keeps
// rendering from the database when Valkey misbehaves.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache returns a cache on client. A zero ttl means DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached page for key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation read failed", "error", err)
		return nil, false
	}

	body, err := pc.client.Get(ctx, entryKey(gen, key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		slog.Warn("page cache get failed", "key", key, "error", err)
		return nil, false
	}
	return body, true
}

// Set caches body under key for the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation read failed", "error", err)
		return
	}
	if err := pc.client.Set(ctx, entryKey(gen, key), body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set failed", "key", key, "error", err)
	}
}

// InvalidateAll makes every cached page unreachable. Any category or
// article write can change the home page, a category listing and an
// article page together, so writes always clear the lot.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	gen, err := pc.client.Incr(ctx, generationKey).Result()
	if err != nil {
		slog.Warn("page cache generation bump failed", "error", err)
		return
	}
	slog.Debug("page cache invalidated", "generation", gen)
}

// Purge deletes every stored page, orphaned generations included, and
// returns how many keys went. Used by maintenance commands.
func (pc *PageCache) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		if cursor = next; cursor == 0 {
			return deleted, nil
		}
	}
}

func (pc *PageCache) generation(ctx context.Context) (int64, error) {
	gen, err := pc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func entryKey(gen int64, key string) string {
	return pageKeyPrefix + strconv.FormatInt(gen, 10) + ":" + key
}

// Key returns the cache key for a public URL path. The site root maps to
// a fixed key that no category slug can produce.
func Key(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return homeKey
	}
	return "path:" + p
}
