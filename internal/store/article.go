// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"studynotes/internal/models"
)

// ArticleStore manages articles in the database.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore returns a new ArticleStore.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// ArticleFilter narrows List. Zero values mean no restriction.
type ArticleFilter struct {
	CategoryID *uuid.UUID
	Status     models.ArticleStatus
	Limit      int
}

const articleColumns = `id, title, subtitle, slug, category_id, difficulty, time_complexity,
	space_complexity, approach, blocks, status, created_at, updated_at`

const summaryColumns = `id, title, subtitle, slug, difficulty, time_complexity,
	space_complexity, status, category_id, created_at`

func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := scanner.Scan(
		&a.ID, &a.Title, &a.Subtitle, &a.Slug, &a.CategoryID, &a.Difficulty, &a.TimeComplexity,
		&a.SpaceComplexity, &a.Approach, &a.Blocks, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}
	return &a, nil
}

func scanSummary(scanner interface{ Scan(...any) error }) (*models.ArticleSummary, error) {
	var s models.ArticleSummary
	err := scanner.Scan(
		&s.ID, &s.Title, &s.Subtitle, &s.Slug, &s.Difficulty, &s.TimeComplexity,
		&s.SpaceComplexity, &s.Status, &s.CategoryID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// categoryIndex loads every category keyed by id, with parents linked.
// The category table is small, so this is cheaper than per-row joins.
func (s *ArticleStore) categoryIndex(ctx context.Context) (map[uuid.UUID]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories c`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	index := map[uuid.UUID]*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range index {
		if c.ParentID != nil {
			c.Parent = index[*c.ParentID]
		}
	}
	return index, nil
}

// attachCategories sets Category on each article.
func (s *ArticleStore) attachCategories(ctx context.Context, articles ...*models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	index, err := s.categoryIndex(ctx)
	if err != nil {
		return err
	}
	for _, a := range articles {
		a.Category = index[a.CategoryID]
	}
	return nil
}

func (s *ArticleStore) queryArticles(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*models.Article, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := s.attachCategories(ctx, ptrs...); err != nil {
		return nil, err
	}
	return items, nil
}

// List returns articles matching f, newest first, with category and parent.
func (s *ArticleStore) List(ctx context.Context, f ArticleFilter) ([]models.Article, error) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	items, err := s.queryArticles(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return items, nil
}

// Recent returns the n most recently updated articles in any status.
func (s *ArticleStore) Recent(ctx context.Context, n int) ([]models.Article, error) {
	items, err := s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY updated_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	return items, nil
}

// ListPublishedInCategories returns summaries of the published articles
// attached directly to any of the given categories, newest first.
func (s *ArticleStore) ListPublishedInCategories(ctx context.Context, ids []uuid.UUID) ([]models.ArticleSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []any{string(models.StatusPublished)}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+` FROM articles
		WHERE status = $1 AND category_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	defer rows.Close()

	var items []models.ArticleSummary
	for rows.Next() {
		a, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// ListPublishedInTree returns the published articles of a category and of
// its direct children, newest first.
func (s *ArticleStore) ListPublishedInTree(ctx context.Context, categoryID uuid.UUID) ([]models.ArticleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+` FROM articles
		WHERE status = $1
		  AND (category_id = $2 OR category_id IN (SELECT id FROM categories WHERE parent_id = $2))
		ORDER BY created_at DESC`, string(models.StatusPublished), categoryID)
	if err != nil {
		return nil, fmt.Errorf("list published articles in tree: %w", err)
	}
	defer rows.Close()

	var items []models.ArticleSummary
	for rows.Next() {
		a, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func (s *ArticleStore) findOne(ctx context.Context, where string, arg any) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE `+where, arg)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// FindBySlug retrieves an article by slug with its category. Returns nil if
// not found.
func (s *ArticleStore) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := s.findOne(ctx, "slug = $1", slug)
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return a, nil
}

// FindByID retrieves an article by ID with its category. Returns nil if not
// found.
func (s *ArticleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	a, err := s.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// SlugTaken reports whether another article than exclude uses slug.
func (s *ArticleStore) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return taken, nil
}

// Create inserts a new article. An empty status becomes draft and nil
// blocks become an empty sequence.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, subtitle, slug, category_id, difficulty, time_complexity,
			space_complexity, approach, blocks, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+articleColumns,
		a.Title, a.Subtitle, a.Slug, a.CategoryID, difficultyArg(a.Difficulty), a.TimeComplexity,
		a.SpaceComplexity, a.Approach, a.Blocks, string(a.Status),
	)
	created, err := scanArticle(row)
	switch {
	case isPgError(err, pgUniqueViolation):
		return nil, ErrSlugTaken
	case isPgError(err, pgForeignKeyViolation):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("create article: %w", err)
	}
	if err := s.attachCategories(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces every editable field of the article with the given ID,
// including its blocks. Returns nil if the article does not exist.
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) (*models.Article, error) {
	if a.Blocks == nil {
		a.Blocks = models.Blocks{}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE articles SET
			title = $1, subtitle = $2, slug = $3, category_id = $4, difficulty = $5,
			time_complexity = $6, space_complexity = $7, approach = $8, blocks = $9,
			status = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+articleColumns,
		a.Title, a.Subtitle, a.Slug, a.CategoryID, difficultyArg(a.Difficulty), a.TimeComplexity,
		a.SpaceComplexity, a.Approach, a.Blocks, string(a.Status), a.ID,
	)
	updated, err := scanArticle(row)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case isPgError(err, pgUniqueViolation):
		return nil, ErrSlugTaken
	case isPgError(err, pgForeignKeyViolation):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("update article: %w", err)
	}
	if err := s.attachCategories(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateMeta saves every article field except the block sequence, which is
// only changed through UpdateBlocks. Returns nil if the article does not exist.
func (s *ArticleStore) UpdateMeta(ctx context.Context, a *models.Article) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE articles SET
			title = $1, subtitle = $2, slug = $3, category_id = $4, difficulty = $5,
			time_complexity = $6, space_complexity = $7, approach = $8,
			status = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING `+articleColumns,
		a.Title, a.Subtitle, a.Slug, a.CategoryID, difficultyArg(a.Difficulty), a.TimeComplexity,
		a.SpaceComplexity, a.Approach, string(a.Status), a.ID,
	)
	updated, err := scanArticle(row)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case isPgError(err, pgUniqueViolation):
		return nil, ErrSlugTaken
	case isPgError(err, pgForeignKeyViolation):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("update article meta: %w", err)
	}
	if err := s.attachCategories(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateBlocks applies fn to the stored block sequence of an article and
// saves the result, holding a row lock for the read-modify-write. Returns
// nil if the article does not exist. An error from fn aborts the change.
func (s *ArticleStore) UpdateBlocks(ctx context.Context, id uuid.UUID, fn func(models.Blocks) (models.Blocks, error)) (*models.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current models.Blocks
	err = tx.QueryRowContext(ctx, `SELECT blocks FROM articles WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock article blocks: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = models.Blocks{}
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE articles SET blocks = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+articleColumns, next, id)
	updated, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("save article blocks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit article blocks: %w", err)
	}
	if err := s.attachCategories(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an article by ID. It reports whether a row was deleted.
func (s *ArticleStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	return n > 0, nil
}

// Stats returns the dashboard counters.
func (s *ArticleStore) Stats(ctx context.Context) (models.ArticleStats, error) {
	var st models.ArticleStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'published'),
		       COUNT(*) FILTER (WHERE status = 'draft')
		FROM articles`).Scan(&st.Total, &st.Published, &st.Drafts)
	if err != nil {
		return st, fmt.Errorf("article stats: %w", err)
	}
	return st, nil
}

// difficultyArg converts an optional difficulty to a driver value.
func difficultyArg(d *models.Difficulty) any {
	if d == nil {
		return nil
	}
	return string(*d)
}
