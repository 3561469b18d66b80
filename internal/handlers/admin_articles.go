// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/slug"
	"studynotes/internal/store"
)

// ArticlesList renders the article table, optionally filtered by category
// id and status.
func (a *Admin) ArticlesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var f store.ArticleFilter
	categoryID := q.Get("category")
	if id, err := uuid.Parse(categoryID); err == nil {
		f.CategoryID = &id
	} else {
		categoryID = ""
	}
	status := models.ArticleStatus(q.Get("status"))
	if status.Valid() {
		f.Status = status
	}

	articles, err := a.articles.List(ctx, f)
	if err != nil {
		slog.Error("list articles failed", "error", err)
	}
	options, err := a.categories.FlatTree(ctx)
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	a.renderer.Page(w, r, "articles_list", &render.PageData{
		Title:   "Articles",
		Section: "articles",
		Data: map[string]any{
			"Articles":   articles,
			"Categories": options,
			"Status":     string(f.Status),
			"CategoryID": categoryID,
		},
	})
}

// ArticleNew renders the new article form. Blocks are edited once the
// article exists.
func (a *Admin) ArticleNew(w http.ResponseWriter, r *http.Request) {
	art := &models.Article{Status: models.StatusDraft}
	if raw := r.URL.Query().Get("category"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			art.CategoryID = id
		}
	}
	a.articleForm(w, r, art, true, "")
}

// ArticleCreate handles the new article form submission and continues to
// the block editor.
func (a *Admin) ArticleCreate(w http.ResponseWriter, r *http.Request) {
	art := &models.Article{Blocks: models.Blocks{}}
	if msg := articleFromForm(r, art); msg != "" {
		a.articleForm(w, r, art, true, msg)
		return
	}

	created, err := a.articles.Create(r.Context(), art)
	if err != nil {
		a.articleForm(w, r, art, true, articleErrorMessage(err))
		return
	}

	a.inv.Invalidate(r.Context(), store.EntityArticle, created.ID, store.ActionCreate)
	http.Redirect(w, r, "/admin/articles/"+created.ID.String()+"/edit", http.StatusSeeOther)
}

// ArticleEdit renders the article metadata form and its block editor.
func (a *Admin) ArticleEdit(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	a.articleForm(w, r, art, false, "")
}

// ArticleUpdate handles the article metadata form submission. The block
// sequence is left as stored.
func (a *Admin) ArticleUpdate(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}

	if msg := articleFromForm(r, art); msg != "" {
		a.articleForm(w, r, art, false, msg)
		return
	}

	ctx := r.Context()
	updated, err := a.articles.UpdateMeta(ctx, art)
	if err != nil {
		a.articleForm(w, r, art, false, articleErrorMessage(err))
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.inv.Invalidate(ctx, store.EntityArticle, updated.ID, store.ActionUpdate)
	http.Redirect(w, r, "/admin/articles/"+updated.ID.String()+"/edit", http.StatusSeeOther)
}

// ArticleDelete handles article deletion from the list.
func (a *Admin) ArticleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	deleted, err := a.articles.Delete(r.Context(), id)
	if err != nil {
		slog.Error("delete article failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.NotFound(w, r)
		return
	}

	a.inv.Invalidate(r.Context(), store.EntityArticle, id, store.ActionDelete)
	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/admin/articles", http.StatusSeeOther)
}

// loadArticle fetches the article named by the {id} URL parameter. It
// writes the error response and returns false when there is none.
func (a *Admin) loadArticle(w http.ResponseWriter, r *http.Request) (*models.Article, bool) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	art, err := a.articles.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find article failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if art == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return art, true
}

// articleForm renders the create or edit form of art.
func (a *Admin) articleForm(w http.ResponseWriter, r *http.Request, art *models.Article, isNew bool, errMsg string) {
	options, err := a.categories.FlatTree(r.Context())
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	title := "New Article"
	if !isNew {
		title = art.Title
	}
	a.renderer.Page(w, r, "article_form", &render.PageData{
		Title:   title,
		Section: "articles",
		Data: map[string]any{
			"Article":    art,
			"Categories": options,
			"IsNew":      isNew,
			"Error":      errMsg,
		},
	})
}

// articleFromForm copies the submitted metadata fields onto art and
// validates them. It returns a user-facing message when the input is
// rejected.
func articleFromForm(r *http.Request, art *models.Article) string {
	art.Title = strings.TrimSpace(r.FormValue("title"))
	art.Slug = strings.TrimSpace(r.FormValue("slug"))
	if art.Slug == "" {
		art.Slug = slug.Generate(art.Title)
	}
	art.Subtitle = nonEmpty(r.FormValue("subtitle"))
	art.TimeComplexity = nonEmpty(r.FormValue("time_complexity"))
	art.SpaceComplexity = nonEmpty(r.FormValue("space_complexity"))
	art.Approach = nonEmpty(r.FormValue("approach"))

	art.Status = models.ArticleStatus(r.FormValue("status"))
	if art.Status == "" {
		art.Status = models.StatusDraft
	}

	art.Difficulty = nil
	if d := r.FormValue("difficulty"); d != "" {
		diff := models.Difficulty(d)
		art.Difficulty = &diff
	}

	id, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		return "Category is required"
	}
	art.CategoryID = id

	return validateArticle(art)
}

// articleErrorMessage maps store errors to the messages shown in the admin.
func articleErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrSlugTaken):
		return "An article with this slug already exists"
	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"
	}
	slog.Error("article write failed", "error", err)
	return "Failed to save article"
}
