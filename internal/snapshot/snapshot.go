// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package snapshot exports the whole category and article catalogue to a
// JSON document in object storage and restores it again. A restore
// replaces every category and article in one transaction.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"studynotes/internal/cache"
	"studynotes/internal/models"
	"studynotes/internal/store"
)

// FormatVersion is the version written by Export and accepted by Import.
const FormatVersion = 1

// KeyPrefix is prepended to generated snapshot keys.
const KeyPrefix = "snapshots/"

// ErrInvalidSnapshot is returned for documents that cannot be restored.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the exported document.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Categories []models.Category `json:"categories"`
	Articles   []models.Article  `json:"articles"`
}

// ObjectStore is the subset of the storage client used for snapshots.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// Service builds, uploads and restores snapshots.
type Service struct {
	db         *sql.DB
	categories *store.CategoryStore
	articles   *store.ArticleStore
	objects    ObjectStore
	pages      *cache.PageCache
	cacheLog   *store.CacheLogStore
}

// New creates a snapshot service. pages and cacheLog may be nil.
func New(db *sql.DB, objects ObjectStore, pages *cache.PageCache, cacheLog *store.CacheLogStore) *Service {
	return &Service{
		db:         db,
		categories: store.NewCategoryStore(db),
		articles:   store.NewArticleStore(db),
		objects:    objects,
		pages:      pages,
		cacheLog:   cacheLog,
	}
}

// DefaultKey returns the object key used when none is given.
func DefaultKey(now time.Time) string {
	return KeyPrefix + now.UTC().Format("20060102T150405Z") + ".json"
}

// Build reads the current catalogue into a snapshot.
func (s *Service) Build(ctx context.Context) (*Snapshot, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	arts, err := s.articles.List(ctx, store.ArticleFilter{})
	if err != nil {
		return nil, err
	}

	// Only stored fields are exported.
	for i := range cats {
		cats[i].Parent, cats[i].Children, cats[i].Articles = nil, nil, nil
		cats[i].ArticleCount, cats[i].PublishedCount = 0, 0
	}
	for i := range arts {
		arts[i].Category = nil
	}

	return &Snapshot{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Categories: cats,
		Articles:   arts,
	}, nil
}

// Export uploads a snapshot of the catalogue under key, or under a
// timestamped key when key is empty. It returns the key used.
func (s *Service) Export(ctx context.Context, key string) (string, error) {
	snap, err := s.Build(ctx)
	if err != nil {
		return "", err
	}
	data, err := Encode(snap)
	if err != nil {
		return "", err
	}
	if key == "" {
		key = DefaultKey(snap.ExportedAt)
	}
	if err := s.objects.Upload(ctx, key, "application/json", data); err != nil {
		return "", err
	}

	slog.Info("snapshot exported", "key", key,
		"categories", len(snap.Categories), "articles", len(snap.Articles), "bytes", len(data))
	return key, nil
}

// Import downloads the snapshot stored under key and restores it.
func (s *Service) Import(ctx context.Context, key string) (*Snapshot, error) {
	data, err := s.objects.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(ctx, snap); err != nil {
		return nil, err
	}

	slog.Info("snapshot imported", "key", key,
		"categories", len(snap.Categories), "articles", len(snap.Articles))
	return snap, nil
}

// Restore replaces all categories and articles with the content of snap in
// one transaction, keeping identifiers and timestamps, then clears the
// page cache.
func (s *Service) Restore(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("restore begin: %w", err)
	}
	defer tx.Rollback()

	// Children go before parents because of the self reference.
	for _, q := range []string{
		`DELETE FROM articles`,
		`DELETE FROM categories WHERE parent_id IS NOT NULL`,
		`DELETE FROM categories`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("restore clear: %w", err)
		}
	}

	// Parents first, so every child finds its parent row.
	for _, topLevel := range []bool{true, false} {
		for _, c := range snap.Categories {
			if c.IsTopLevel() != topLevel {
				continue
			}
			if err := insertCategory(ctx, tx, c); err != nil {
				return err
			}
		}
	}
	for _, a := range snap.Articles {
		if err := insertArticle(ctx, tx, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("restore commit: %w", err)
	}

	if s.pages != nil {
		s.pages.InvalidateAll(ctx)
	}
	if s.cacheLog != nil {
		s.cacheLog.Log(ctx, store.EntitySite, uuid.Nil, store.ActionImport)
	}
	return nil
}

func insertCategory(ctx context.Context, tx *sql.Tx, c models.Category) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, description, icon, bg_color, text_color, icon_color,
			sort_order, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Slug, c.Description, c.Icon.OrDefault(), c.BgColor, c.TextColor, c.IconColor,
		c.Order, c.ParentID, orNow(c.CreatedAt), orNow(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("restore category %s: %w", c.Slug, err)
	}
	return nil
}

func insertArticle(ctx context.Context, tx *sql.Tx, a models.Article) error {
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}
	var difficulty any
	if a.Difficulty != nil {
		difficulty = string(*a.Difficulty)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO articles (id, title, subtitle, slug, category_id, difficulty, time_complexity,
			space_complexity, approach, blocks, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Title, a.Subtitle, a.Slug, a.CategoryID, difficulty, a.TimeComplexity,
		a.SpaceComplexity, a.Approach, a.Blocks, string(a.Status), orNow(a.CreatedAt), orNow(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("restore article %s: %w", a.Slug, err)
	}
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// Encode serializes snap as indented JSON.
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a snapshot document.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks that the snapshot can be restored as a whole: known
// version, unique identifiers and slugs, one level of nesting, and every
// article pointing at an included category.
func (snap *Snapshot) Validate() error {
	if snap.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, snap.Version)
	}

	byID := make(map[uuid.UUID]models.Category, len(snap.Categories))
	slugs := map[string]bool{}
	for _, c := range snap.Categories {
		if c.ID == uuid.Nil || c.Slug == "" || c.Name == "" {
			return fmt.Errorf("%w: category %q lacks id, name or slug", ErrInvalidSnapshot, c.Slug)
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("%w: duplicate category id %s", ErrInvalidSnapshot, c.ID)
		}
		if slugs[c.Slug] {
			return fmt.Errorf("%w: duplicate category slug %q", ErrInvalidSnapshot, c.Slug)
		}
		byID[c.ID] = c
		slugs[c.Slug] = true
	}
	for _, c := range snap.Categories {
		if c.ParentID == nil {
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok {
			return fmt.Errorf("%w: category %q has an unknown parent", ErrInvalidSnapshot, c.Slug)
		}
		if !parent.IsTopLevel() {
			return fmt.Errorf("%w: category %q nests more than one level", ErrInvalidSnapshot, c.Slug)
		}
	}

	ids := map[uuid.UUID]bool{}
	slugs = map[string]bool{}
	for _, a := range snap.Articles {
		if a.ID == uuid.Nil || a.Slug == "" || a.Title == "" {
			return fmt.Errorf("%w: article %q lacks id, title or slug", ErrInvalidSnapshot, a.Slug)
		}
		if ids[a.ID] || slugs[a.Slug] {
			return fmt.Errorf("%w: duplicate article %q", ErrInvalidSnapshot, a.Slug)
		}
		if _, ok := byID[a.CategoryID]; !ok {
			return fmt.Errorf("%w: article %q has an unknown category", ErrInvalidSnapshot, a.Slug)
		}
		if !a.Status.Valid() {
			return fmt.Errorf("%w: article %q has status %q", ErrInvalidSnapshot, a.Slug, a.Status)
		}
		if a.Difficulty != nil && !a.Difficulty.Valid() {
			return fmt.Errorf("%w: article %q has difficulty %q", ErrInvalidSnapshot, a.Slug, *a.Difficulty)
		}
		ids[a.ID] = true
		slugs[a.Slug] = true
	}
	return nil
}
