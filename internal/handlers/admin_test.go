// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"studynotes/internal/models"
)

// formRequest builds a signed-in form submission.
func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return signedIn(req)
}

// blockIDs lists the ids of the stored blocks of an article.
func blockIDs(t *testing.T, env *testEnv, id string) []string {
	t.Helper()
	art, err := env.Articles.FindBySlug(context.Background(), id)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if art == nil {
		t.Fatalf("article %s not found", id)
	}
	ids := make([]string, len(art.Blocks))
	for i, b := range art.Blocks {
		ids[i] = b.BlockID()
	}
	return ids
}

// wantBlocks compares the stored block order of an article.
func wantBlocks(t *testing.T, env *testEnv, slug string, want ...string) {
	t.Helper()
	if got := blockIDs(t, env, slug); !slices.Equal(got, want) {
		t.Errorf("blocks: got %v, want %v", got, want)
	}
}

// bodyContains reports every wanted fragment missing from rec's body.
func bodyContains(t *testing.T, rec *httptest.ResponseRecorder, wants ...string) {
	t.Helper()
	body := rec.Body.String()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-dash-cat", nil)
	mustArticle(t, env, "adm-dash-article", c.ID, models.StatusPublished, nil)

	rec := httptest.NewRecorder()
	env.Admin.Dashboard(rec, signedIn(httptest.NewRequest(http.MethodGet, "/admin", nil)))

	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, "Test adm-dash-article")
}

func TestAdminCategoryCreate(t *testing.T) {
	env := newTestEnv(t)
	t.Cleanup(func() { cleanCategorySlugs(env.DB, "dynamic-programming") })

	form := url.Values{
		"name":        {"Dynamic Programming"},
		"description": {"Memoization and tabulation"},
		"icon":        {"Brain"},
		"color":       {models.ColorPresets[1].Name},
	}
	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, formRequest(http.MethodPost, "/admin/categories", form))

	wantStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/admin/categories" {
		t.Errorf("Location: got %q", loc)
	}

	c, err := env.Categories.FindBySlug(context.Background(), "dynamic-programming")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if c == nil {
		t.Fatal("slug should be generated from the name")
	}
	if c.Icon != models.IconBrain {
		t.Errorf("Icon: got %q, want %q", c.Icon, models.IconBrain)
	}
	if c.BgColor != models.ColorPresets[1].BgColor {
		t.Errorf("BgColor: got %q, want %q", c.BgColor, models.ColorPresets[1].BgColor)
	}
}

func TestAdminCategoryCreateRerendersOnError(t *testing.T) {
	env := newTestEnv(t)
	mustCategory(t, env, "adm-taken", nil)

	form := url.Values{"name": {"Taken"}, "slug": {"adm-taken"}}
	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, formRequest(http.MethodPost, "/admin/categories", form))

	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, "A category with this slug already exists")
}

func TestAdminCategoryDeleteGuard(t *testing.T) {
	env := newTestEnv(t)
	parent := mustCategory(t, env, "adm-del-parent", nil)
	mustCategory(t, env, "adm-del-child", &parent.ID)

	req := withChiURLParam(signedIn(httptest.NewRequest(http.MethodDelete, "/", nil)), "id", parent.ID.String())
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.Admin.CategoryDelete(rec, req)

	wantStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("HX-Retarget"); got != "#category-error" {
		t.Errorf("HX-Retarget: got %q", got)
	}
	bodyContains(t, rec, "Cannot delete category with subcategories.")

	still, err := env.Categories.FindByID(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if still == nil {
		t.Error("guarded category was deleted")
	}
}

func TestAdminCategoryInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Admin.CategoryEdit(rec, withChiURLParam(signedIn(httptest.NewRequest(http.MethodGet, "/", nil)), "id", "not-a-uuid"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminArticleCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-art-cat", nil)
	t.Cleanup(func() { cleanArticles(env.DB, "adm-valid-parentheses") })

	form := url.Values{
		"title":       {"Valid Parentheses"},
		"slug":        {"adm-valid-parentheses"},
		"category_id": {c.ID.String()},
		"difficulty":  {"Easy"},
		"status":      {"draft"},
	}
	rec := httptest.NewRecorder()
	env.Admin.ArticleCreate(rec, formRequest(http.MethodPost, "/admin/articles", form))
	wantStatus(t, rec, http.StatusSeeOther)

	art, err := env.Articles.FindBySlug(context.Background(), "adm-valid-parentheses")
	if err != nil || art == nil {
		t.Fatalf("FindBySlug: got %v, %v", art, err)
	}
	if loc, want := rec.Header().Get("Location"), "/admin/articles/"+art.ID.String()+"/edit"; loc != want {
		t.Errorf("Location: got %q, want %q", loc, want)
	}

	// Metadata saves leave the block sequence alone.
	_, err = env.Articles.UpdateBlocks(context.Background(), art.ID, func(models.Blocks) (models.Blocks, error) {
		return models.Blocks{models.ProblemStatement{ID: "p1", Content: "<p>Brackets</p>"}}, nil
	})
	if err != nil {
		t.Fatalf("UpdateBlocks: %v", err)
	}

	form.Set("status", "published")
	form.Set("approach", "Stack")
	rec = httptest.NewRecorder()
	req := withChiURLParam(formRequest(http.MethodPost, "/", form), "id", art.ID.String())
	env.Admin.ArticleUpdate(rec, req)
	wantStatus(t, rec, http.StatusSeeOther)

	got, err := env.Articles.FindByID(context.Background(), art.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != models.StatusPublished {
		t.Errorf("Status: got %q, want published", got.Status)
	}
	if got.Approach == nil || *got.Approach != "Stack" {
		t.Errorf("Approach: got %v, want Stack", got.Approach)
	}
	if len(got.Blocks) != 1 {
		t.Errorf("Blocks: got %d, want 1", len(got.Blocks))
	}
}

func TestAdminArticleCreateRequiresCategory(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"title": {"No Category"}, "slug": {"adm-no-category"}, "status": {"draft"}}
	rec := httptest.NewRecorder()
	env.Admin.ArticleCreate(rec, formRequest(http.MethodPost, "/admin/articles", form))

	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, "Category is required")
}

func TestAdminBlockNewForm(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-blk-new", nil)
	art := mustArticle(t, env, "adm-blk-new-art", c.ID, models.StatusDraft, nil)

	rec := httptest.NewRecorder()
	req := withChiURLParam(signedIn(httptest.NewRequest(http.MethodGet, "/?type=examples", nil)), "id", art.ID.String())
	env.Admin.BlockNew(rec, req)
	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, `name="block_id"`, "/admin/articles/"+art.ID.String()+"/blocks")

	rec = httptest.NewRecorder()
	req = withChiURLParam(signedIn(httptest.NewRequest(http.MethodGet, "/?type=video", nil)), "id", art.ID.String())
	env.Admin.BlockNew(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminBlockCreateAndEdit(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-blk-create", nil)
	art := mustArticle(t, env, "adm-blk-create-art", c.ID, models.StatusDraft, nil)
	id := art.ID.String()

	form := url.Values{
		"block_id":   {"rt1"},
		"block_type": {string(models.BlockRichText)},
		"title":      {"Notes"},
		"content":    {"**bold**"},
		"format":     {"markdown"},
	}
	rec := httptest.NewRecorder()
	env.Admin.BlockCreate(rec, withChiURLParam(formRequest(http.MethodPost, "/", form), "id", id))
	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, `<div id="block-form"></div>`, `hx-swap-oob="true"`)
	wantBlocks(t, env, "adm-blk-create-art", "rt1")

	form.Set("content", "changed")
	rec = httptest.NewRecorder()
	env.Admin.BlockUpdate(rec, withChiURLParams(formRequest(http.MethodPut, "/", form), "id", id, "blockID", "rt1"))
	wantStatus(t, rec, http.StatusOK)

	got, err := env.Articles.FindByID(context.Background(), art.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Blocks) != 1 {
		t.Fatalf("Blocks: got %d, want 1", len(got.Blocks))
	}
	rt, ok := got.Blocks[0].(models.RichText)
	if !ok {
		t.Fatalf("block: got %T, want RichText", got.Blocks[0])
	}
	if rt.Content != "changed" || rt.Format != models.TextFormatMarkdown {
		t.Errorf("got %q/%q, want changed/markdown", rt.Content, rt.Format)
	}

	rec = httptest.NewRecorder()
	env.Admin.BlockUpdate(rec, withChiURLParams(formRequest(http.MethodPut, "/", form), "id", id, "blockID", "other"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched id: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminBlockReorderAndDelete(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-blk-order", nil)
	art := mustArticle(t, env, "adm-blk-order-art", c.ID, models.StatusDraft, models.Blocks{
		models.ProblemStatement{ID: "a", Content: "A"},
		models.ProblemStatement{ID: "b", Content: "B"},
		models.ProblemStatement{ID: "c", Content: "C"},
	})
	id := art.ID.String()

	do := func(name string, h http.HandlerFunc, req *http.Request, want int) {
		t.Helper()
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != want {
			t.Fatalf("%s: got %d, want %d", name, rec.Code, want)
		}
	}
	blockReq := func(blockID string) *http.Request {
		return withChiURLParams(signedIn(httptest.NewRequest(http.MethodPost, "/", nil)), "id", id, "blockID", blockID)
	}

	do("up b", env.Admin.BlockUp, blockReq("b"), http.StatusOK)
	wantBlocks(t, env, "adm-blk-order-art", "b", "a", "c")

	do("down b", env.Admin.BlockDown, blockReq("b"), http.StatusOK)
	wantBlocks(t, env, "adm-blk-order-art", "a", "b", "c")

	// The first block stays first.
	do("up a", env.Admin.BlockUp, blockReq("a"), http.StatusOK)
	wantBlocks(t, env, "adm-blk-order-art", "a", "b", "c")

	badMove := withChiURLParam(formRequest(http.MethodPost, "/", url.Values{"from": {"0"}, "to": {"9"}}), "id", id)
	do("move out of range", env.Admin.BlockMove, badMove, http.StatusBadRequest)

	moveReq := withChiURLParam(formRequest(http.MethodPost, "/", url.Values{"from": {"0"}, "to": {"2"}}), "id", id)
	do("move", env.Admin.BlockMove, moveReq, http.StatusOK)
	wantBlocks(t, env, "adm-blk-order-art", "b", "c", "a")

	do("delete c", env.Admin.BlockDelete, blockReq("c"), http.StatusOK)
	wantBlocks(t, env, "adm-blk-order-art", "b", "a")

	do("delete missing", env.Admin.BlockDelete, blockReq("missing"), http.StatusNotFound)
}

func TestAdminBlockRowsKeepsInput(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-blk-rows", nil)
	art := mustArticle(t, env, "adm-blk-rows-art", c.ID, models.StatusDraft, nil)

	form := url.Values{
		"block_id":    {"ex1"},
		"block_type":  {string(models.BlockExamples)},
		"item_title":  {"Example 1"},
		"item_input":  {"nums = [2,7,11,15]"},
		"item_output": {"[0,1]"},
	}
	rec := httptest.NewRecorder()
	req := withChiURLParam(formRequest(http.MethodPost, "/?op=add", form), "id", art.ID.String())
	env.Admin.BlockRows(rec, req)

	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, "nums = [2,7,11,15]")
	if n := strings.Count(rec.Body.String(), `name="item_title"`); n != 2 {
		t.Errorf("title rows: got %d, want 2", n)
	}
	// Row edits are not stored.
	wantBlocks(t, env, "adm-blk-rows-art")
}

func TestAdminBlockCreateInvalidKeepsInput(t *testing.T) {
	env := newTestEnv(t)
	c := mustCategory(t, env, "adm-blk-invalid", nil)
	art := mustArticle(t, env, "adm-blk-invalid-art", c.ID, models.StatusDraft, nil)

	form := url.Values{
		"block_id":   {"tips1"},
		"block_type": {string(models.BlockTipsList)},
		"title":      {"Pitfalls"},
		"variant":    {"shouting"},
		"item":       {"Watch for overflow", "Empty input"},
	}
	rec := httptest.NewRecorder()
	env.Admin.BlockCreate(rec, withChiURLParam(formRequest(http.MethodPost, "/", form), "id", art.ID.String()))

	wantStatus(t, rec, http.StatusOK)
	bodyContains(t, rec, "tips variant", `value="Pitfalls"`, `value="Watch for overflow"`, `value="Empty input"`)
	wantBlocks(t, env, "adm-blk-invalid-art")
}
