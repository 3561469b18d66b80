// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"studynotes/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `c.id, c.name, c.slug, c.description, c.icon, c.bg_color, c.text_color,
	c.icon_color, c.sort_order, c.parent_id, c.created_at, c.updated_at`

// countedCategories selects every category with its direct article counts.
const countedCategories = `
	SELECT ` + categoryColumns + `,
	       COUNT(a.id) AS article_count,
	       COUNT(a.id) FILTER (WHERE a.status = 'published') AS published_count
	FROM categories c
	LEFT JOIN articles a ON a.category_id = c.id`

// scanCategory scans a row into a Category struct. Extra destinations are
// appended after the category columns.
func scanCategory(scanner interface{ Scan(...any) error }, extra ...any) (*models.Category, error) {
	var c models.Category
	dest := []any{
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.BgColor, &c.TextColor,
		&c.IconColor, &c.Order, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) queryCounted(ctx context.Context, where string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, countedCategories+" "+where+`
		GROUP BY c.id
		ORDER BY c.sort_order, c.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var articles, published int
		c, err := scanCategory(rows, &articles, &published)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ArticleCount, c.PublishedCount = articles, published
		items = append(items, *c)
	}
	return items, rows.Err()
}

// List returns all categories as a flat list ordered by sort order and name,
// with article counts.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.queryCounted(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// Tree returns the top-level categories with their children attached.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

// buildTree nests a flat, ordered list one level deep. Children keep the
// order of the flat list.
func buildTree(flat []models.Category) []models.Category {
	children := map[uuid.UUID][]models.Category{}
	for _, c := range flat {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var roots []models.Category
	for _, c := range flat {
		if c.ParentID != nil {
			continue
		}
		parent := c
		c.Children = children[c.ID]
		for i := range c.Children {
			c.Children[i].Parent = &parent
		}
		roots = append(roots, c)
	}
	return roots
}

// FlatTree returns categories ordered for display: each parent followed by
// its children. Useful for <select> dropdowns.
func (s *CategoryStore) FlatTree(ctx context.Context) ([]models.Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.Category
	for _, c := range tree {
		kids := c.Children
		c.Children = nil
		result = append(result, c)
		result = append(result, kids...)
	}
	return result, nil
}

// TopLevel returns the categories without a parent, with article counts.
// They are the only valid parents.
func (s *CategoryStore) TopLevel(ctx context.Context) ([]models.Category, error) {
	items, err := s.queryCounted(ctx, "WHERE c.parent_id IS NULL")
	if err != nil {
		return nil, fmt.Errorf("list top-level categories: %w", err)
	}
	return items, nil
}

// Children returns the subcategories of parentID ordered by sort order, with
// article counts.
func (s *CategoryStore) Children(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	items, err := s.queryCounted(ctx, "WHERE c.parent_id = $1", parentID)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}
	return items, nil
}

// findOne returns the single category matching where, with counts and its
// parent loaded. Returns nil if not found.
func (s *CategoryStore) findOne(ctx context.Context, where string, args ...any) (*models.Category, error) {
	items, err := s.queryCounted(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	c := &items[0]
	if c.ParentID != nil {
		row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, *c.ParentID)
		parent, err := scanCategory(row)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		c.Parent = parent
	}
	return c, nil
}

// FindByID retrieves a category by ID with its parent. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.findOne(ctx, "WHERE c.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug with its parent. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.findOne(ctx, "WHERE c.slug = $1", slug)
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindByPath resolves URL path segments to a category. One segment matches
// a top-level category, two segments a child whose parent has the first
// slug. Any other length, or a mismatch, returns nil.
func (s *CategoryStore) FindByPath(ctx context.Context, segments []string) (*models.Category, error) {
	var (
		c   *models.Category
		err error
	)
	switch len(segments) {
	case 1:
		c, err = s.findOne(ctx, "WHERE c.slug = $1 AND c.parent_id IS NULL", segments[0])
	case 2:
		c, err = s.findOne(ctx,
			"WHERE c.slug = $2 AND c.parent_id = (SELECT p.id FROM categories p WHERE p.slug = $1 AND p.parent_id IS NULL)",
			segments[0], segments[1])
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by path: %w", err)
	}
	return c, nil
}

// SlugTaken reports whether another category than exclude uses slug.
func (s *CategoryStore) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return taken, nil
}

// checkParent enforces the one-level nesting rule for a category with the
// given id (uuid.Nil when new) being placed under parentID.
func checkParent(ctx context.Context, tx *sql.Tx, id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ErrNestingTooDeep
	}

	var grandparent *uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT parent_id FROM categories WHERE id = $1`, *parentID).Scan(&grandparent)
	if err == sql.ErrNoRows {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	if grandparent != nil {
		return ErrNestingTooDeep
	}

	if id == uuid.Nil {
		return nil
	}
	var hasChildren bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)`, id).Scan(&hasChildren)
	if err != nil {
		return fmt.Errorf("check children: %w", err)
	}
	if hasChildren {
		return ErrNestingTooDeep
	}
	return nil
}

// Create inserts a new category and returns it with its parent loaded.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkParent(ctx, tx, uuid.Nil, c.ParentID); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, icon, bg_color, text_color, icon_color, sort_order, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.Name, c.Slug, c.Description, c.Icon.OrDefault(), c.BgColor, c.TextColor, c.IconColor, c.Order, c.ParentID,
	).Scan(&id)
	if isPgError(err, pgUniqueViolation) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit category: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update modifies an existing category and returns it with its parent
// loaded. Returns nil if the category does not exist.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkParent(ctx, tx, c.ID, c.ParentID); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, icon = $4, bg_color = $5,
			text_color = $6, icon_color = $7, sort_order = $8, parent_id = $9,
			updated_at = NOW()
		WHERE id = $10`,
		c.Name, c.Slug, c.Description, c.Icon.OrDefault(), c.BgColor, c.TextColor,
		c.IconColor, c.Order, c.ParentID, c.ID,
	)
	if isPgError(err, pgUniqueViolation) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit category: %w", err)
	}
	return s.FindByID(ctx, c.ID)
}

// Delete removes a category. A category with subcategories or articles is
// left unchanged and ErrHasChildren or ErrHasArticles is returned.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock the row so no child or article can be attached concurrently.
	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}

	var children, articles int
	err = tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM categories WHERE parent_id = $1),
			(SELECT COUNT(*) FROM articles WHERE category_id = $1)`, id,
	).Scan(&children, &articles)
	if err != nil {
		return fmt.Errorf("count category dependents: %w", err)
	}
	if children > 0 {
		return ErrHasChildren
	}
	if articles > 0 {
		return ErrHasArticles
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

// Count returns the number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL`).Scan(&maxOrder)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM categories WHERE parent_id = $1`, *parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 1, nil
}
