// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"studynotes/internal/models"
)

func TestArticleStoreCreateDefaults(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-art-defaults")
		cleanCategories(t, db, "st-art-cat")
	})

	parent := mustCategory(t, cats, "st-art-cat", nil)
	child := mustCategory(t, cats, "st-art-sub", &parent.ID)

	a, err := s.Create(ctx, &models.Article{Title: "Two Sum", Slug: "st-art-defaults", CategoryID: child.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != models.StatusDraft {
		t.Errorf("status = %q, want draft", a.Status)
	}
	if a.Blocks == nil || len(a.Blocks) != 0 {
		t.Errorf("blocks = %#v, want empty", a.Blocks)
	}
	if a.Path() != "/st-art-cat/st-art-sub/st-art-defaults" {
		t.Errorf("path = %q", a.Path())
	}
}

func TestArticleStoreValidation(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-art-dup", "st-art-dup-2")
		cleanCategories(t, db, "st-art-val")
	})

	cat := mustCategory(t, cats, "st-art-val", nil)

	if _, err := s.Create(ctx, &models.Article{Title: "A", Slug: "st-art-dup", CategoryID: cat.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Create(ctx, &models.Article{Title: "B", Slug: "st-art-dup", CategoryID: cat.ID})
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	_, err = s.Create(ctx, &models.Article{Title: "C", Slug: "st-art-dup-2", CategoryID: uuid.New()})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestArticleStoreBlocksRoundTrip(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-art-blocks")
		cleanCategories(t, db, "st-art-blocks-cat")
	})

	cat := mustCategory(t, cats, "st-art-blocks-cat", nil)
	blocks := models.Blocks{
		models.TipsList{ID: "t1", Title: "Tips", Variant: models.TipsVariantNotes, Items: []string{"a", "b", "c"}},
		models.Unknown{ID: "u1", Kind: "diagram", Raw: []byte(`{"id":"u1","type":"diagram","nodes":[1,2]}`)},
	}

	created, err := s.Create(ctx, &models.Article{Title: "Blocks", Slug: "st-art-blocks", CategoryID: cat.ID, Blocks: blocks})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.FindByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v %v", got, err)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(got.Blocks))
	}
	tips, ok := got.Blocks[0].(models.TipsList)
	if !ok || len(tips.Items) != 3 || tips.Variant != models.TipsVariantNotes {
		t.Errorf("tips block = %#v", got.Blocks[0])
	}
	unknown, ok := got.Blocks[1].(models.Unknown)
	if !ok || unknown.Kind != "diagram" {
		t.Errorf("unknown block = %#v", got.Blocks[1])
	}
}

func TestArticleStoreUpdateBlocks(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-art-ub")
		cleanCategories(t, db, "st-art-ub-cat")
	})

	cat := mustCategory(t, cats, "st-art-ub-cat", nil)
	a, err := s.Create(ctx, &models.Article{Title: "UB", Slug: "st-art-ub", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.UpdateBlocks(ctx, a.ID, func(seq models.Blocks) (models.Blocks, error) {
		return append(seq, models.ProblemStatement{ID: "p1", Content: "<p>Given</p>"}), nil
	})
	if err != nil {
		t.Fatalf("UpdateBlocks: %v", err)
	}
	if len(updated.Blocks) != 1 || updated.Blocks[0].BlockID() != "p1" {
		t.Fatalf("blocks after append = %#v", updated.Blocks)
	}

	// A failing edit leaves the stored sequence alone.
	boom := errors.New("boom")
	_, err = s.UpdateBlocks(ctx, a.ID, func(models.Blocks) (models.Blocks, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := s.FindByID(ctx, a.ID)
	if len(got.Blocks) != 1 {
		t.Errorf("blocks after failed edit = %d, want 1", len(got.Blocks))
	}

	missing, err := s.UpdateBlocks(ctx, uuid.New(), func(seq models.Blocks) (models.Blocks, error) { return seq, nil })
	if err != nil || missing != nil {
		t.Errorf("missing article: got %v, %v", missing, err)
	}
}

func TestArticleStoreListAndStats(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-list-pub", "st-list-draft", "st-list-child")
		cleanCategories(t, db, "st-list-cat")
	})

	cat := mustCategory(t, cats, "st-list-cat", nil)
	sub := mustCategory(t, cats, "st-list-sub", &cat.ID)
	for _, a := range []models.Article{
		{Title: "Pub", Slug: "st-list-pub", CategoryID: cat.ID, Status: models.StatusPublished},
		{Title: "Draft", Slug: "st-list-draft", CategoryID: cat.ID},
		{Title: "Child", Slug: "st-list-child", CategoryID: sub.ID, Status: models.StatusPublished},
	} {
		a := a
		if _, err := s.Create(ctx, &a); err != nil {
			t.Fatalf("create %s: %v", a.Slug, err)
		}
	}

	published, err := s.List(ctx, ArticleFilter{CategoryID: &cat.ID, Status: models.StatusPublished})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(published) != 1 || published[0].Slug != "st-list-pub" {
		t.Errorf("published in cat = %+v", published)
	}
	if published[0].Category == nil || published[0].Category.Slug != "st-list-cat" {
		t.Error("category not attached")
	}

	all, err := s.List(ctx, ArticleFilter{CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all in cat = %d, want 2", len(all))
	}

	limited, err := s.List(ctx, ArticleFilter{Limit: 1})
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d", len(limited))
	}

	summaries, err := s.ListPublishedInCategories(ctx, []uuid.UUID{cat.ID, sub.ID})
	if err != nil {
		t.Fatalf("ListPublishedInCategories: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("summaries = %d, want 2", len(summaries))
	}

	tree, err := s.ListPublishedInTree(ctx, cat.ID)
	if err != nil {
		t.Fatalf("ListPublishedInTree: %v", err)
	}
	if len(tree) != 2 {
		t.Errorf("tree = %d, want 2", len(tree))
	}
	subtree, err := s.ListPublishedInTree(ctx, sub.ID)
	if err != nil {
		t.Fatalf("ListPublishedInTree sub: %v", err)
	}
	if len(subtree) != 1 || subtree[0].Slug != "st-list-child" {
		t.Errorf("subtree = %+v", subtree)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total < 3 || stats.Published < 2 || stats.Drafts < 1 || stats.Published+stats.Drafts != stats.Total {
		t.Errorf("stats = %+v", stats)
	}
}

func TestArticleStoreUpdateAndDelete(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-upd", "st-upd-renamed", "st-upd-other")
		cleanCategories(t, db, "st-upd-cat")
	})

	cat := mustCategory(t, cats, "st-upd-cat", nil)
	a, err := s.Create(ctx, &models.Article{Title: "Upd", Slug: "st-upd", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, &models.Article{Title: "Other", Slug: "st-upd-other", CategoryID: cat.ID}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	hard := models.DifficultyHard
	a.Slug = "st-upd-renamed"
	a.Difficulty = &hard
	a.Status = models.StatusPublished
	updated, err := s.Update(ctx, a)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "st-upd-renamed" || updated.Difficulty == nil || *updated.Difficulty != hard {
		t.Errorf("updated = %+v", updated)
	}

	a.Slug = "st-upd-other"
	if _, err := s.Update(ctx, a); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	deleted, err := s.Delete(ctx, a.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete: %v %v", deleted, err)
	}
	deleted, err = s.Delete(ctx, a.ID)
	if err != nil || deleted {
		t.Errorf("second Delete: %v %v", deleted, err)
	}
}

func TestArticleStoreUpdateMetaKeepsBlocks(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	s := NewArticleStore(db)
	ctx := context.Background()
	t.Cleanup(func() {
		cleanArticles(t, db, "st-meta")
		cleanCategories(t, db, "st-meta-cat")
	})

	cat := mustCategory(t, cats, "st-meta-cat", nil)
	a, err := s.Create(ctx, &models.Article{
		Title:      "Meta",
		Slug:       "st-meta",
		CategoryID: cat.ID,
		Blocks:     models.Blocks{models.ProblemStatement{ID: "p1", Content: "Stored"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	a.Title = "Meta Renamed"
	a.Blocks = models.Blocks{}
	updated, err := s.UpdateMeta(ctx, a)
	if err != nil {
		t.Fatalf("UpdateMeta: %v", err)
	}
	if updated.Title != "Meta Renamed" {
		t.Errorf("Title = %q", updated.Title)
	}
	if len(updated.Blocks) != 1 || updated.Blocks[0].BlockID() != "p1" {
		t.Errorf("blocks changed: %+v", updated.Blocks)
	}

	missing := *a
	missing.ID = uuid.New()
	got, err := s.UpdateMeta(ctx, &missing)
	if err != nil || got != nil {
		t.Errorf("UpdateMeta(missing) = %v, %v; want nil, nil", got, err)
	}
}
