// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/session"
)

const siteName = "Study Notes"

func newRenderer(t *testing.T, devMode bool) *Renderer {
	t.Helper()
	rn, err := New(devMode, siteName)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rn
}

func author() *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "author@studynotes.local",
		DisplayName: "Ada Author",
		Role:        string(models.RoleAdmin),
		TwoFADone:   true,
	}
}

// adminRequest carries sess in its context the way LoadSession leaves it.
func adminRequest(method, target string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if sess == nil {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
}

// contains reports each want missing from body.
func contains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
}

// lacks reports each unwanted string present in body.
func lacks(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body should not contain %q", u)
		}
	}
}

func dashboard(total, published int) map[string]any {
	return map[string]any{
		"Stats":         models.ArticleStats{Total: total, Published: published, Drafts: total - published},
		"CategoryCount": 13,
		"Recent":        []models.Article{},
	}
}

func TestNewParsesEveryPage(t *testing.T) {
	rn := newRenderer(t, false)

	admin := []string{"dashboard", "login", "2fa_setup", "2fa_verify", "categories_list", "category_form", "articles_list", "article_form"}
	site := []string{"home", "category", "article", "not_found"}
	if got := keys(rn.templates); !slices.Equal(got, sorted(admin)) {
		t.Errorf("admin pages: got %v, want %v", got, sorted(admin))
	}
	if got := keys(rn.site); !slices.Equal(got, sorted(site)) {
		t.Errorf("site pages: got %v, want %v", got, sorted(site))
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return sorted(out)
}

func sorted(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return s
}

func TestFuncMapCombinesHelpers(t *testing.T) {
	rn := newRenderer(t, true)

	for _, name := range []string{"upper", "default", "deref", "uuidEq", "icon", "blockLabel", "siteName"} {
		if _, ok := rn.funcMap[name]; !ok {
			t.Errorf("template function %q missing", name)
		}
	}
	name, ok := rn.funcMap["siteName"].(func() string)
	if !ok || name() != siteName {
		t.Errorf("siteName helper does not return %q", siteName)
	}
}

func TestAssetsFollowMode(t *testing.T) {
	for _, dev := range []bool{true, false} {
		rec := httptest.NewRecorder()
		newRenderer(t, dev).Page(rec, adminRequest(http.MethodGet, "/admin/login", nil), "login", &PageData{})

		body := rec.Body.String()
		if dev {
			contains(t, body, "cdn.tailwindcss.com")
			lacks(t, body, "/static/css/admin.css")
		} else {
			lacks(t, body, "cdn.tailwindcss.com")
			contains(t, body, "/static/css/admin.css")
		}
	}
}

func TestPageFullAndPartial(t *testing.T) {
	rn := newRenderer(t, true)
	sess := author()

	full := httptest.NewRecorder()
	rn.Page(full, adminRequest(http.MethodGet, "/admin", sess), "dashboard", &PageData{
		Title: "Dashboard", Section: "dashboard", Data: dashboard(5, 3),
	})
	if full.Code != http.StatusOK {
		t.Fatalf("full page status: got %d", full.Code)
	}
	if ct := full.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	contains(t, full.Body.String(), "<!DOCTYPE html>", siteName, "Welcome back")

	req := adminRequest(http.MethodGet, "/admin", sess)
	req.Header.Set("HX-Request", "true")
	partial := httptest.NewRecorder()
	rn.Page(partial, req, "dashboard", &PageData{Title: "Dashboard", Section: "dashboard", Data: dashboard(1, 1)})
	if partial.Code != http.StatusOK {
		t.Fatalf("partial status: got %d", partial.Code)
	}
	lacks(t, partial.Body.String(), "<!DOCTYPE html>", "<head>")
	contains(t, partial.Body.String(), "Welcome back")
}

func TestStandalonePagesSkipLayout(t *testing.T) {
	rn := newRenderer(t, true)

	for _, name := range []string{"login", "2fa_setup", "2fa_verify"} {
		t.Run(name, func(t *testing.T) {
			// HX-Request must not strip a standalone page down to a block.
			req := adminRequest(http.MethodGet, "/admin/"+name, nil)
			req.Header.Set("HX-Request", "true")
			rec := httptest.NewRecorder()
			rn.Page(rec, req, name, &PageData{Data: map[string]any{}})

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			contains(t, rec.Body.String(), "<!DOCTYPE html>")
			// Sidebar of the base layout.
			lacks(t, rec.Body.String(), "lg:flex-shrink-0")
		})
	}
}

func TestPageUnknownTemplate(t *testing.T) {
	rec := httptest.NewRecorder()
	newRenderer(t, true).Page(rec, adminRequest(http.MethodGet, "/admin/x", nil), "nope", &PageData{})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	contains(t, rec.Body.String(), "not found")
}

func TestInjectsCSRFToken(t *testing.T) {
	rn := newRenderer(t, true)

	var req *http.Request
	middleware.NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	if req == nil {
		t.Fatal("CSRF middleware did not call the handler")
	}

	token := middleware.CSRFTokenFromCtx(req.Context())
	if token == "" {
		t.Fatal("no CSRF token in context")
	}

	data := &PageData{}
	rec := httptest.NewRecorder()
	rn.Page(rec, req, "login", data)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if data.CSRFToken != token {
		t.Errorf("CSRFToken: got %q, want %q", data.CSRFToken, token)
	}
	contains(t, rec.Body.String(), `name="csrf_token" value="`+token+`"`)
}

func TestInjectsSession(t *testing.T) {
	rn := newRenderer(t, true)
	sess := author()

	data := &PageData{Title: "Dashboard", Section: "dashboard", Data: dashboard(0, 0)}
	rec := httptest.NewRecorder()
	rn.Page(rec, adminRequest(http.MethodGet, "/admin", sess), "dashboard", data)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if data.Session != sess {
		t.Error("session from the context was not injected")
	}
	contains(t, rec.Body.String(), "Ada Author")

	// An explicit session wins over the context.
	other := author()
	other.DisplayName = "Someone Else"
	data = &PageData{Session: other, Data: dashboard(0, 0)}
	rn.Page(httptest.NewRecorder(), adminRequest(http.MethodGet, "/admin", sess), "dashboard", data)
	if data.Session != other {
		t.Error("explicit session was replaced")
	}
}

func TestIsHTMX(t *testing.T) {
	for header, want := range map[string]bool{"": false, "true": true, "false": false, "1": false} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("HX-Request", header)
		}
		if got := isHTMX(req); got != want {
			t.Errorf("HX-Request %q: got %v, want %v", header, got, want)
		}
	}
}

func TestPageStatusKeepsSubmittedValues(t *testing.T) {
	rec := httptest.NewRecorder()
	newRenderer(t, true).PageStatus(rec, adminRequest(http.MethodPost, "/admin/categories", author()),
		http.StatusBadRequest, "category_form", &PageData{
			Title:   "New Category",
			Section: "categories",
			Data: map[string]any{
				"Category": &models.Category{Name: "Algorithms", Icon: models.IconCode},
				"Parents":  []models.Category{},
				"IsNew":    true,
				"Error":    "A category with this slug already exists",
			},
		})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	contains(t, rec.Body.String(), "A category with this slug already exists", `value="Algorithms"`)
}

func TestFragmentBlockList(t *testing.T) {
	article := &models.Article{
		ID:    uuid.New(),
		Title: "Two Sum",
		Blocks: models.Blocks{
			models.ProblemStatement{ID: "a1", Content: "<p>Find two numbers.</p>"},
			models.TipsList{ID: "b2", Title: "Tips", Variant: models.TipsVariantTips, Items: []string{"Use a map"}},
		},
	}

	rec := httptest.NewRecorder()
	newRenderer(t, true).Fragment(rec, adminRequest(http.MethodPost, "/admin/articles/x/blocks", author()),
		"article_form", "block_list", &PageData{Data: map[string]any{"Article": article, "OOB": true}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	contains(t, body,
		`<div id="block-form"></div>`, `id="block-list"`, `hx-swap-oob="true"`,
		"/blocks/a1/up", "/blocks/b2/down", "Problem Statement", "Tips List",
	)
	lacks(t, body, "<!DOCTYPE html>")

	missing := httptest.NewRecorder()
	newRenderer(t, true).Fragment(missing, adminRequest(http.MethodGet, "/", nil), "nope", "block_list", &PageData{})
	if missing.Code != http.StatusInternalServerError {
		t.Errorf("unknown page status: got %d, want %d", missing.Code, http.StatusInternalServerError)
	}
}

func TestSitePages(t *testing.T) {
	rn := newRenderer(t, true)

	parent := models.Category{ID: uuid.New(), Name: "Data Structures", Slug: "data-structures", Icon: models.IconDatabase, PublishedCount: 1}
	child := models.Category{ID: uuid.New(), Name: "Arrays", Slug: "arrays", Icon: "Nope", Parent: &parent, PublishedCount: 2}
	parent.Children = []models.Category{child}
	medium := models.DifficultyMedium

	tests := []struct {
		name  string
		page  string
		data  *SiteData
		wants []string
	}{
		{
			name:  "home sums child counts",
			page:  "home",
			data:  &SiteData{Data: map[string]any{"Categories": []models.Category{parent}}},
			wants: []string{"Data Structures", `href="/data-structures"`, "3 articles"},
		},
		{
			name: "category lists published articles",
			page: "category",
			data: &SiteData{Title: "Arrays", Data: map[string]any{
				"Category": &child,
				"Children": []models.Category{},
				"Articles": []models.ArticleSummary{{Title: "Two Sum", Slug: "two-sum", CategoryPath: "/data-structures/arrays", Difficulty: &medium}},
			}},
			wants: []string{`href="/data-structures/arrays/two-sum"`, "Medium", "Arrays · " + siteName},
		},
		{
			name: "article without blocks",
			page: "article",
			data: &SiteData{Title: "Two Sum", Data: map[string]any{
				"Article": &models.Article{Title: "Two Sum", Slug: "two-sum", Status: models.StatusPublished, Category: &child},
				"Body":    "",
			}},
			wants: []string{"This article is being written. Check back soon!", `href="/data-structures"`},
		},
		{
			name:  "not found",
			page:  "not_found",
			data:  &SiteData{Title: "Not Found"},
			wants: []string{"Page not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := rn.Site(tt.page, tt.data)
			if err != nil {
				t.Fatalf("Site: %v", err)
			}
			contains(t, string(out), "<!DOCTYPE html>")
			contains(t, string(out), tt.wants...)
		})
	}

	if _, err := rn.Site("missing", &SiteData{}); err == nil {
		t.Error("expected an error for an unknown site page")
	}
}

func TestIconSVG(t *testing.T) {
	for _, icon := range models.Icons {
		if _, ok := iconPaths[icon]; !ok {
			t.Errorf("icon %q has no SVG", icon)
		}
	}

	unknown := IconSVG("Unknown", "h-4 w-4")
	if unknown != IconSVG(models.IconFileText, "h-4 w-4") {
		t.Error("unknown icons should fall back to FileText")
	}
	contains(t, string(unknown), `class="h-4 w-4"`)
	contains(t, string(IconSVG(models.IconCode, `"><script>`)), `class="&#34;&gt;&lt;script&gt;"`)
}

func TestDifficultyClass(t *testing.T) {
	easy, medium, hard := models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard
	unknown := models.Difficulty("Trivial")

	if got := DifficultyClass(nil); got != "" {
		t.Errorf("nil difficulty: got %q, want empty", got)
	}
	for _, tt := range []struct {
		d    *models.Difficulty
		want string
	}{
		{&easy, "green"}, {&medium, "yellow"}, {&hard, "red"}, {&unknown, "gray"},
	} {
		contains(t, DifficultyClass(tt.d), tt.want)
	}
}
