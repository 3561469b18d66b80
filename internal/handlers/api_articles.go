// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/store"
)

// articleRequest is the body of article create and update requests.
type articleRequest struct {
	Title           optional[string]               `json:"title"`
	Subtitle        optional[*string]              `json:"subtitle"`
	Slug            optional[string]               `json:"slug"`
	CategoryID      optional[string]               `json:"categoryId"`
	Difficulty      optional[*models.Difficulty]   `json:"difficulty"`
	TimeComplexity  optional[*string]              `json:"timeComplexity"`
	SpaceComplexity optional[*string]              `json:"spaceComplexity"`
	Approach        optional[*string]              `json:"approach"`
	Blocks          optional[models.Blocks]        `json:"blocks"`
	Status          optional[models.ArticleStatus] `json:"status"`
}

// apply copies the fields present in the request onto art. It reports
// false when categoryId is present but not a valid identifier.
func (req *articleRequest) apply(art *models.Article) bool {
	art.Title = strings.TrimSpace(req.Title.or(art.Title))
	art.Subtitle = req.Subtitle.or(art.Subtitle)
	art.Slug = strings.TrimSpace(req.Slug.or(art.Slug))
	art.Difficulty = req.Difficulty.or(art.Difficulty)
	art.TimeComplexity = req.TimeComplexity.or(art.TimeComplexity)
	art.SpaceComplexity = req.SpaceComplexity.or(art.SpaceComplexity)
	art.Approach = req.Approach.or(art.Approach)
	art.Status = req.Status.or(art.Status)
	if req.Blocks.Set {
		art.Blocks = req.Blocks.Value
	}
	if art.Blocks == nil {
		art.Blocks = models.Blocks{}
	}
	if req.CategoryID.Set {
		id, err := uuid.Parse(req.CategoryID.Value)
		if err != nil {
			return false
		}
		art.CategoryID = id
	}
	return true
}

// articleWriteError maps store errors of article writes to responses.
func articleWriteError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, store.ErrSlugTaken):
		writeError(w, http.StatusBadRequest, "An article with this slug already exists")
	case errors.Is(err, store.ErrCategoryNotFound):
		writeError(w, http.StatusBadRequest, "Category not found")
	default:
		serverError(w, action, err)
	}
}

// ListArticles handles GET /api/articles?category=&status=&limit=.
// Anonymous callers only ever see published articles; an unknown category
// slug leaves the list unfiltered.
func (a *API) ListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var f store.ArticleFilter
	if slug := q.Get("category"); slug != "" {
		c, err := a.categories.FindBySlug(ctx, slug)
		if err != nil {
			serverError(w, "fetch articles", err)
			return
		}
		if c != nil {
			f.CategoryID = &c.ID
		}
	}

	if middleware.IsAuthenticated(ctx) {
		if status := models.ArticleStatus(q.Get("status")); status.Valid() {
			f.Status = status
		}
	} else {
		f.Status = models.StatusPublished
	}

	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}

	articles, err := a.articles.List(ctx, f)
	if err != nil {
		serverError(w, "fetch articles", err)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// CreateArticle handles POST /api/articles. Status defaults to draft and
// blocks to an empty list.
func (a *API) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Title.Value) == "" || strings.TrimSpace(req.Slug.Value) == "" || req.CategoryID.Value == "" {
		writeError(w, http.StatusBadRequest, "Title, slug, and categoryId are required")
		return
	}

	art := &models.Article{Status: models.StatusDraft}
	if !req.apply(art) {
		writeError(w, http.StatusBadRequest, "Category not found")
		return
	}
	if msg := validateArticle(art); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	taken, err := a.articles.SlugTaken(ctx, art.Slug, uuid.Nil)
	if err != nil {
		serverError(w, "create article", err)
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "An article with this slug already exists")
		return
	}

	created, err := a.articles.Create(ctx, art)
	if err != nil {
		articleWriteError(w, "create article", err)
		return
	}

	a.inv.Invalidate(ctx, store.EntityArticle, created.ID, store.ActionCreate)
	writeJSON(w, http.StatusCreated, created)
}

// findArticle resolves an article with the given finder. Drafts are
// reported as missing to anonymous callers. It writes a 404 and returns
// nil when nothing visible matches.
func (a *API) findArticle(w http.ResponseWriter, r *http.Request, find func() (*models.Article, error)) *models.Article {
	art, err := find()
	if err != nil {
		serverError(w, "fetch article", err)
		return nil
	}
	if art == nil || (!art.IsPublished() && !middleware.IsAuthenticated(r.Context())) {
		writeError(w, http.StatusNotFound, "Article not found")
		return nil
	}
	return art
}

// bySlug finds the article named by the {slug} URL parameter.
func (a *API) bySlug(r *http.Request) func() (*models.Article, error) {
	return func() (*models.Article, error) {
		return a.articles.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	}
}

// byID finds the article named by the {id} URL parameter.
func (a *API) byID(r *http.Request) func() (*models.Article, error) {
	return func() (*models.Article, error) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			return nil, nil
		}
		return a.articles.FindByID(r.Context(), id)
	}
}

// GetArticle handles GET /api/articles/{slug}.
func (a *API) GetArticle(w http.ResponseWriter, r *http.Request) {
	if art := a.findArticle(w, r, a.bySlug(r)); art != nil {
		writeJSON(w, http.StatusOK, art)
	}
}

// GetArticleByID handles GET /api/articles/id/{id}.
func (a *API) GetArticleByID(w http.ResponseWriter, r *http.Request) {
	if art := a.findArticle(w, r, a.byID(r)); art != nil {
		writeJSON(w, http.StatusOK, art)
	}
}

// UpdateArticle handles PUT /api/articles/{slug}.
func (a *API) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	a.updateArticle(w, r, a.bySlug(r))
}

// UpdateArticleByID handles PUT /api/articles/id/{id}.
func (a *API) UpdateArticleByID(w http.ResponseWriter, r *http.Request) {
	a.updateArticle(w, r, a.byID(r))
}

// updateArticle applies a partial update. The slug is only checked for
// conflicts when it changes.
func (a *API) updateArticle(w http.ResponseWriter, r *http.Request, find func() (*models.Article, error)) {
	art := a.findArticle(w, r, find)
	if art == nil {
		return
	}

	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	oldSlug := art.Slug
	if !req.apply(art) {
		writeError(w, http.StatusBadRequest, "Category not found")
		return
	}
	if art.Slug == "" {
		writeError(w, http.StatusBadRequest, "Title, slug, and categoryId are required")
		return
	}
	if msg := validateArticle(art); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if art.Slug != oldSlug {
		taken, err := a.articles.SlugTaken(ctx, art.Slug, art.ID)
		if err != nil {
			serverError(w, "update article", err)
			return
		}
		if taken {
			writeError(w, http.StatusBadRequest, "An article with this slug already exists")
			return
		}
	}

	updated, err := a.articles.Update(ctx, art)
	if err != nil {
		articleWriteError(w, "update article", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Article not found")
		return
	}

	a.inv.Invalidate(ctx, store.EntityArticle, updated.ID, store.ActionUpdate)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteArticle handles DELETE /api/articles/{slug}.
func (a *API) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	a.deleteArticle(w, r, a.bySlug(r))
}

// DeleteArticleByID handles DELETE /api/articles/id/{id}.
func (a *API) DeleteArticleByID(w http.ResponseWriter, r *http.Request) {
	a.deleteArticle(w, r, a.byID(r))
}

func (a *API) deleteArticle(w http.ResponseWriter, r *http.Request, find func() (*models.Article, error)) {
	art := a.findArticle(w, r, find)
	if art == nil {
		return
	}

	ctx := r.Context()
	deleted, err := a.articles.Delete(ctx, art.ID)
	if err != nil {
		serverError(w, "delete article", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Article not found")
		return
	}

	a.inv.Invalidate(ctx, store.EntityArticle, art.ID, store.ActionDelete)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Article deleted successfully"})
}
