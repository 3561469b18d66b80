// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface
// and the public site. Admin pages support full-page and HTMX partial
// rendering, detecting the request type via the HX-Request header. Site
// pages render to bytes so they can be cached.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/Masterminds/sprig"
	"github.com/google/uuid"

	"studynotes/internal/blocks"
	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/session"
)

//go:embed templates/admin/*.html templates/site/*.html
var templateFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active sidebar section (e.g., "dashboard", "articles")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// SiteData holds all data passed to public site templates.
type SiteData struct {
	Title       string
	Description string
	// Authenticated is true for signed-in authors; drafts and the admin
	// link are shown to them.
	Authenticated bool
	Data          map[string]any
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	site      map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// New creates a Renderer by parsing the embedded templates. Each admin page
// is paired with the base layout and each site page with the site layout.
// When devMode is true, pages use CDN-hosted assets (TailwindCSS, HTMX);
// when false, they reference compiled local static files.
func New(devMode bool, siteName string) (*Renderer, error) {
	helpers := template.FuncMap{
		"activeClass": func(current, target string) string {
			if current == target {
				return "bg-gray-900 text-white"
			}
			return "text-gray-300 hover:bg-gray-700 hover:text-white"
		},
		// deref safely dereferences a string pointer for use in templates.
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefDifficulty": func(d *models.Difficulty) string {
			if d == nil {
				return ""
			}
			return string(*d)
		},
		"isDev":    func() bool { return devMode },
		"siteName": func() string { return siteName },
		// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"icon":            IconSVG,
		"icons":           func() []models.Icon { return models.Icons },
		"colorPresets":    func() []models.ColorPreset { return models.ColorPresets },
		"difficulties":    func() []models.Difficulty { return models.Difficulties },
		"difficultyClass": DifficultyClass,
		"blockCatalog":    func() []blocks.Info { return blocks.Catalog },
		"blockLabel":      blocks.Label,
		"blockPreview":    blocks.Preview,
	}
	funcs := sprig.FuncMap()
	for name, fn := range helpers {
		funcs[name] = fn
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		site:      make(map[string]*template.Template),
		funcMap:   funcs,
	}

	if err := r.parseDir("templates/admin", "base.html", r.templates); err != nil {
		return nil, err
	}
	if err := r.parseDir("templates/site", "layout.html", r.site); err != nil {
		return nil, err
	}
	return r, nil
}

// parseDir parses every page in dir paired with the layout file into dst,
// keyed by the file name without extension.
func (r *Renderer) parseDir(dir, layout string, dst map[string]*template.Template) error {
	pages, err := fs.Glob(templateFS, dir+"/*.html")
	if err != nil {
		return fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		name := path.Base(page)
		if name == layout {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(templateFS, page)
		} else {
			tmpl, parseErr = template.New(layout).Funcs(r.funcMap).ParseFS(
				templateFS, dir+"/"+layout, page,
			)
		}
		if parseErr != nil {
			return fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		dst[tmplName] = tmpl
	}
	return nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// For full page loads, the entire base layout is rendered.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code, used to re-render forms
// with a validation error.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	rn.inject(r, data)

	execName := "base.html"
	switch {
	case isHTMX(r) && !standaloneTemplates[name]:
		execName = "content"
	case standaloneTemplates[name]:
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Fragment renders one named template defined by an admin page, such as
// the block list of the article editor, for HTMX swaps.
func (rn *Renderer) Fragment(w http.ResponseWriter, r *http.Request, page, fragment string, data *PageData) {
	tmpl, ok := rn.templates[page]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}

	rn.inject(r, data)

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, fragment, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// inject fills the request-scoped fields of data.
func (rn *Renderer) inject(r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
}

// Site renders a public page into a byte slice.
func (rn *Renderer) Site(name string, data *SiteData) ([]byte, error) {
	tmpl, ok := rn.site[name]
	if !ok {
		return nil, fmt.Errorf("site template %q not found", name)
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, "layout.html", data); err != nil {
		return nil, fmt.Errorf("execute site template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// DifficultyClass returns the badge classes of a difficulty level.
func DifficultyClass(d *models.Difficulty) string {
	if d == nil {
		return ""
	}
	switch *d {
	case models.DifficultyEasy:
		return "bg-green-100 text-green-800"
	case models.DifficultyMedium:
		return "bg-yellow-100 text-yellow-800"
	case models.DifficultyHard:
		return "bg-red-100 text-red-800"
	}
	return "bg-gray-100 text-gray-800"
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
