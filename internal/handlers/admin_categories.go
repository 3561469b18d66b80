// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/slug"
	"studynotes/internal/store"
)

// CategoriesList renders the category tree.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	tree, err := a.categories.Tree(r.Context())
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	a.renderer.Page(w, r, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": tree},
	})
}

// CategoryNew renders the new category form with the first color preset
// and the next free sort position selected.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	c := &models.Category{Icon: models.DefaultIcon}
	applyPreset(c, "")
	if order, err := a.categories.NextSortOrder(r.Context(), nil); err == nil {
		c.Order = order
	}
	a.categoryForm(w, r, c, true, "")
}

// CategoryCreate handles the new category form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	c := &models.Category{}
	if msg := categoryFromForm(r, c); msg != "" {
		a.categoryForm(w, r, c, true, msg)
		return
	}

	created, err := a.categories.Create(r.Context(), c)
	if err != nil {
		a.categoryForm(w, r, c, true, categoryErrorMessage(err))
		return
	}

	a.inv.Invalidate(r.Context(), store.EntityCategory, created.ID, store.ActionCreate)
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryEdit renders the edit form of a category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	c, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find category failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}
	a.categoryForm(w, r, c, false, "")
}

// CategoryUpdate handles the edit category form submission.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ctx := r.Context()
	c, err := a.categories.FindByID(ctx, id)
	if err != nil {
		slog.Error("find category failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}

	if msg := categoryFromForm(r, c); msg != "" {
		a.categoryForm(w, r, c, false, msg)
		return
	}

	updated, err := a.categories.Update(ctx, c)
	if err != nil {
		a.categoryForm(w, r, c, false, categoryErrorMessage(err))
		return
	}
	if updated == nil {
		http.NotFound(w, r)
		return
	}

	a.inv.Invalidate(ctx, store.EntityCategory, updated.ID, store.ActionUpdate)
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete handles category deletion from the list. On success the
// row is removed; a category that still has subcategories or articles
// stays and the reason is shown above the table.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	err := a.categories.Delete(r.Context(), id)
	switch {
	case err == nil:
		a.inv.Invalidate(r.Context(), store.EntityCategory, id, store.ActionDelete)
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, store.ErrCategoryNotFound):
		http.NotFound(w, r)
	case errors.Is(err, store.ErrHasChildren), errors.Is(err, store.ErrHasArticles):
		w.Header().Set("HX-Retarget", "#category-error")
		w.Header().Set("HX-Reswap", "innerHTML")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div class="mb-4 rounded-md bg-red-50 p-3 text-sm text-red-700">` +
			html.EscapeString(categoryErrorMessage(err)) + `</div>`))
	default:
		slog.Error("delete category failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// categoryForm renders the create or edit form of c.
func (a *Admin) categoryForm(w http.ResponseWriter, r *http.Request, c *models.Category, isNew bool, errMsg string) {
	parents, err := a.categories.TopLevel(r.Context())
	if err != nil {
		slog.Error("list parent categories failed", "error", err)
	}

	title := "New Category"
	if !isNew {
		title = "Edit Category"
	}
	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data: map[string]any{
			"Category": c,
			"Parents":  parents,
			"IsNew":    isNew,
			"Error":    errMsg,
		},
	})
}

// categoryFromForm copies the submitted form onto c and validates it. It
// returns a user-facing message when the input is rejected.
func categoryFromForm(r *http.Request, c *models.Category) string {
	c.Name = strings.TrimSpace(r.FormValue("name"))
	c.Slug = strings.TrimSpace(r.FormValue("slug"))
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}
	c.Description = strings.TrimSpace(r.FormValue("description"))
	c.Icon = models.Icon(r.FormValue("icon")).OrDefault()
	applyPreset(c, r.FormValue("color"))

	if order, err := strconv.Atoi(r.FormValue("order")); err == nil {
		c.Order = order
	}

	c.ParentID = nil
	if raw := r.FormValue("parent_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return "Parent category not found"
		}
		c.ParentID = &pid
	}

	return validateCategory(c.Name, c.Slug, c.Description)
}

// applyPreset sets the color roles of c from the named preset, falling
// back to the first preset for unknown names.
func applyPreset(c *models.Category, name string) {
	p := models.ColorPresets[0]
	for _, preset := range models.ColorPresets {
		if preset.Name == name {
			p = preset
			break
		}
	}
	c.BgColor, c.TextColor, c.IconColor = p.BgColor, p.TextColor, p.IconColor
}

// categoryErrorMessage maps store errors to the messages shown in the admin.
func categoryErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrSlugTaken):
		return "A category with this slug already exists"
	case errors.Is(err, store.ErrNestingTooDeep):
		return "Subcategories cannot be nested more than one level"
	case errors.Is(err, store.ErrCategoryNotFound):
		return "Parent category not found"
	case errors.Is(err, store.ErrHasChildren):
		return "Cannot delete category with subcategories. Delete subcategories first."
	case errors.Is(err, store.ErrHasArticles):
		return "Cannot delete category with articles. Move or delete articles first."
	}
	slog.Error("category write failed", "error", err)
	return "Failed to save category"
}
