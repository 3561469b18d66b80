// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studynotes/internal/blocks"
	"studynotes/internal/cache"
	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/store"
)

// maxPathSegments is the deepest public path: parent/child/article.
const maxPathSegments = 3

// Public groups handlers for the public-facing site. Pages rendered for
// anonymous readers go through the Valkey page cache; signed-in authors
// always get a fresh render, including draft previews.
type Public struct {
	renderer   *render.Renderer
	blocks     *blocks.Renderer
	categories *store.CategoryStore
	articles   *store.ArticleStore
	pageCache  *cache.PageCache
}

// NewPublic creates a new Public handler group. pageCache may be nil, which
// disables caching.
func NewPublic(renderer *render.Renderer, blockRenderer *blocks.Renderer, categories *store.CategoryStore, articles *store.ArticleStore, pageCache *cache.PageCache) *Public {
	return &Public{
		renderer:   renderer,
		blocks:     blockRenderer,
		categories: categories,
		articles:   articles,
		pageCache:  pageCache,
	}
}

// Homepage renders the category grid.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anon := !middleware.IsAuthenticated(ctx)
	if anon && p.serveCached(w, r, cache.Key("/")) {
		return
	}

	tree, err := p.categories.Tree(ctx)
	if err != nil {
		slog.Error("load category tree failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.page(w, r, cache.Key("/"), "home", &render.SiteData{
		Description: "Study notes on data structures, algorithms and system design.",
		Data:        map[string]any{"Categories": tree},
	})
}

// CatchAll resolves every other public path. One or two segments may name
// a category; otherwise the last segment is taken as an article slug.
func (p *Public) CatchAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trimmed := strings.Trim(r.URL.Path, "/")
	if trimmed == "" {
		p.Homepage(w, r)
		return
	}
	segments := strings.Split(trimmed, "/")
	if len(segments) > maxPathSegments {
		p.NotFound(w, r)
		return
	}

	key := cache.Key(trimmed)
	if !middleware.IsAuthenticated(ctx) && p.serveCached(w, r, key) {
		return
	}

	c, err := p.categories.FindByPath(ctx, segments)
	if err != nil {
		slog.Error("resolve category path failed", "error", err, "path", trimmed)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c != nil {
		p.categoryPage(w, r, key, c)
		return
	}

	p.articlePage(w, r, key, "/"+trimmed, segments[len(segments)-1])
}

// categoryPage renders a category with its subcategories and the published
// articles of the whole subtree.
func (p *Public) categoryPage(w http.ResponseWriter, r *http.Request, key string, c *models.Category) {
	var (
		children []models.Category
		parent   *models.Category
		articles []models.ArticleSummary
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		children, err = p.categories.Children(ctx, c.ID)
		return err
	})
	if c.ParentID != nil {
		g.Go(func() error {
			var err error
			parent, err = p.categories.FindByID(ctx, *c.ParentID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		articles, err = p.articles.ListPublishedInTree(ctx, c.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("load category page failed", "error", err, "category", c.Slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if parent != nil {
		c.Parent = parent
	}
	paths := map[uuid.UUID]string{c.ID: c.Path()}
	for i := range children {
		children[i].Parent = c
		paths[children[i].ID] = children[i].Path()
	}
	for i := range articles {
		articles[i].CategoryPath = paths[articles[i].CategoryID]
	}

	p.page(w, r, key, "category", &render.SiteData{
		Title:       c.Name,
		Description: c.Description,
		Data: map[string]any{
			"Category": c,
			"Children": children,
			"Articles": articles,
		},
	})
}

// articlePage renders the article named by slug. Drafts are only shown to
// signed-in authors; a request for a valid article under the wrong
// category path is redirected to its canonical URL.
func (p *Public) articlePage(w http.ResponseWriter, r *http.Request, key, path, slug string) {
	ctx := r.Context()
	art, err := p.articles.FindBySlug(ctx, slug)
	if err != nil {
		slog.Error("find article failed", "error", err, "slug", slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if art == nil || (!art.IsPublished() && !middleware.IsAuthenticated(ctx)) {
		p.NotFound(w, r)
		return
	}
	if canonical := art.Path(); canonical != path {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
		return
	}

	var desc string
	if art.Subtitle != nil {
		desc = *art.Subtitle
	}
	p.page(w, r, key, "article", &render.SiteData{
		Title:       art.Title,
		Description: desc,
		Data: map[string]any{
			"Article": art,
			"Body":    p.blocks.RenderAll(art.Blocks),
		},
	})
}

// NotFound renders the 404 page. It is never cached.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	body, err := p.renderer.Site("not_found", &render.SiteData{
		Title:         "Page not found",
		Authenticated: middleware.IsAuthenticated(r.Context()),
	})
	if err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(body)
}

// page renders a site page and stores it in the page cache when the reader
// is anonymous.
func (p *Public) page(w http.ResponseWriter, r *http.Request, key, name string, data *render.SiteData) {
	ctx := r.Context()
	data.Authenticated = middleware.IsAuthenticated(ctx)

	body, err := p.renderer.Site(name, data)
	if err != nil {
		slog.Error("render site page failed", "error", err, "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !data.Authenticated {
		p.store(ctx, key, body)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

// serveCached writes the cached page for key, if any.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if p.pageCache == nil {
		return false
	}
	body, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", "HIT")
	w.Write(body)
	return true
}

func (p *Public) store(ctx context.Context, key string, body []byte) {
	if p.pageCache != nil {
		p.pageCache.Set(ctx, key, body)
	}
}
