// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studynotes/internal/models"
	"studynotes/internal/store"
)

// API groups the JSON API handlers under /api.
type API struct {
	categories *store.CategoryStore
	articles   *store.ArticleStore
	inv        *Invalidator
}

// NewAPI creates a new API handler group.
func NewAPI(categories *store.CategoryStore, articles *store.ArticleStore, inv *Invalidator) *API {
	return &API{categories: categories, articles: articles, inv: inv}
}

// categoryRequest is the body of category create and update requests.
type categoryRequest struct {
	Name        optional[string]      `json:"name"`
	Slug        optional[string]      `json:"slug"`
	Description optional[string]      `json:"description"`
	Icon        optional[models.Icon] `json:"icon"`
	BgColor     optional[string]      `json:"bgColor"`
	TextColor   optional[string]      `json:"textColor"`
	IconColor   optional[string]      `json:"iconColor"`
	Order       optional[int]         `json:"order"`
	ParentID    optional[*string]     `json:"parentId"`
}

// apply copies the fields present in the request onto c. A blank or null
// parentId makes c top level. It reports false when parentId is present
// but not a valid identifier.
func (req *categoryRequest) apply(c *models.Category) bool {
	c.Name = strings.TrimSpace(req.Name.or(c.Name))
	c.Slug = strings.TrimSpace(req.Slug.or(c.Slug))
	c.Description = req.Description.or(c.Description)
	c.Icon = req.Icon.or(c.Icon)
	c.BgColor = req.BgColor.or(c.BgColor)
	c.TextColor = req.TextColor.or(c.TextColor)
	c.IconColor = req.IconColor.or(c.IconColor)
	c.Order = req.Order.or(c.Order)
	if req.ParentID.Set {
		c.ParentID = nil
		if p := req.ParentID.Value; p != nil && strings.TrimSpace(*p) != "" {
			id, err := uuid.Parse(strings.TrimSpace(*p))
			if err != nil {
				return false
			}
			c.ParentID = &id
		}
	}
	return true
}

// defaultPreset fills empty color roles with the first color preset.
func defaultPreset(c *models.Category) {
	p := models.ColorPresets[0]
	if c.BgColor == "" {
		c.BgColor = p.BgColor
	}
	if c.TextColor == "" {
		c.TextColor = p.TextColor
	}
	if c.IconColor == "" {
		c.IconColor = p.IconColor
	}
}

// categoryWriteError maps store errors of category writes to responses.
func categoryWriteError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, store.ErrSlugTaken):
		writeError(w, http.StatusBadRequest, "A category with this slug already exists")
	case errors.Is(err, store.ErrNestingTooDeep):
		writeError(w, http.StatusBadRequest, "Subcategories cannot be nested more than one level")
	case errors.Is(err, store.ErrCategoryNotFound):
		writeError(w, http.StatusBadRequest, "Parent category not found")
	default:
		serverError(w, action, err)
	}
}

// ListCategories handles GET /api/categories: top-level categories with
// their children and article counts.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := a.categories.Tree(r.Context())
	if err != nil {
		serverError(w, "fetch categories", err)
		return
	}
	if tree == nil {
		tree = []models.Category{}
	}
	writeJSON(w, http.StatusOK, tree)
}

// CreateCategory handles POST /api/categories.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := &models.Category{Icon: models.DefaultIcon}
	if !req.apply(c) {
		writeError(w, http.StatusBadRequest, "Parent category not found")
		return
	}
	defaultPreset(c)
	if msg := validateCategory(c.Name, c.Slug, c.Description); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	taken, err := a.categories.SlugTaken(ctx, c.Slug, uuid.Nil)
	if err != nil {
		serverError(w, "create category", err)
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "A category with this slug already exists")
		return
	}

	created, err := a.categories.Create(ctx, c)
	if err != nil {
		categoryWriteError(w, "create category", err)
		return
	}

	a.inv.Invalidate(ctx, store.EntityCategory, created.ID, store.ActionCreate)
	writeJSON(w, http.StatusCreated, created)
}

// GetCategory handles GET /api/categories/{slug}: the category with its
// parent, children and published articles.
func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := a.categories.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, "fetch category", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	children, err := a.categories.Children(ctx, c.ID)
	if err != nil {
		serverError(w, "fetch category", err)
		return
	}
	articles, err := a.articles.ListPublishedInCategories(ctx, []uuid.UUID{c.ID})
	if err != nil {
		serverError(w, "fetch category", err)
		return
	}

	c.Children = children
	c.Articles = articles
	writeJSON(w, http.StatusOK, c)
}

// categoryByID resolves the {id} URL parameter. It writes a 404 and
// returns nil when the category does not exist.
func (a *API) categoryByID(w http.ResponseWriter, r *http.Request) *models.Category {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return nil
	}
	c, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "fetch category", err)
		return nil
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return nil
	}
	return c
}

// GetCategoryByID handles GET /api/categories/id/{id}.
func (a *API) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	c := a.categoryByID(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCategory handles PUT /api/categories/id/{id}. Fields missing from
// the body keep their current value.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	c := a.categoryByID(w, r)
	if c == nil {
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	oldSlug := c.Slug
	if !req.apply(c) {
		writeError(w, http.StatusBadRequest, "Parent category not found")
		return
	}
	if msg := validateCategory(c.Name, c.Slug, c.Description); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if c.Slug != oldSlug {
		taken, err := a.categories.SlugTaken(ctx, c.Slug, c.ID)
		if err != nil {
			serverError(w, "update category", err)
			return
		}
		if taken {
			writeError(w, http.StatusBadRequest, "A category with this slug already exists")
			return
		}
	}

	updated, err := a.categories.Update(ctx, c)
	if err != nil {
		categoryWriteError(w, "update category", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	a.inv.Invalidate(ctx, store.EntityCategory, updated.ID, store.ActionUpdate)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCategory handles DELETE /api/categories/id/{id}. Categories that
// still have subcategories or articles are kept.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	ctx := r.Context()
	err = a.categories.Delete(ctx, id)
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "Category not found")
		return
	case errors.Is(err, store.ErrHasChildren):
		writeError(w, http.StatusBadRequest, "Cannot delete category with subcategories. Delete subcategories first.")
		return
	case errors.Is(err, store.ErrHasArticles):
		writeError(w, http.StatusBadRequest, "Cannot delete category with articles. Move or delete articles first.")
		return
	case err != nil:
		serverError(w, "delete category", err)
		return
	}

	a.inv.Invalidate(ctx, store.EntityCategory, id, store.ActionDelete)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
