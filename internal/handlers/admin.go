// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the study notes site.
// Handlers are grouped by concern (admin, api, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studynotes/internal/blocks"
	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/store"
)

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer   *render.Renderer
	blocks     *blocks.Renderer
	categories *store.CategoryStore
	articles   *store.ArticleStore
	cacheLog   *store.CacheLogStore
	inv        *Invalidator
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, blockRenderer *blocks.Renderer, categories *store.CategoryStore, articles *store.ArticleStore, cacheLog *store.CacheLogStore, inv *Invalidator) *Admin {
	return &Admin{
		renderer:   renderer,
		blocks:     blockRenderer,
		categories: categories,
		articles:   articles,
		cacheLog:   cacheLog,
		inv:        inv,
	}
}

// Dashboard renders the admin dashboard with article counters, the most
// recently edited articles and the latest cache invalidations.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		stats         models.ArticleStats
		categoryCount int
		recent        []models.Article
		cacheLog      []store.CacheLogEntry
	)

	// Each panel degrades on its own; a failed query leaves it empty.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if stats, err = a.articles.Stats(ctx); err != nil {
			slog.Error("dashboard stats failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categoryCount, err = a.categories.Count(ctx); err != nil {
			slog.Error("dashboard category count failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recent, err = a.articles.Recent(ctx, 5); err != nil {
			slog.Error("dashboard recent articles failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if cacheLog, err = a.cacheLog.RecentEntries(ctx, 10); err != nil {
			slog.Error("dashboard cache log failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Stats":         stats,
			"CategoryCount": categoryCount,
			"Recent":        recent,
			"CacheLog":      cacheLog,
		},
	})
}

// parseID parses an id URL parameter. It writes a 400 and returns false
// when the value is malformed.
func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
