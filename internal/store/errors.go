// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSlugTaken is returned when a category or article slug is already used.
	ErrSlugTaken = errors.New("slug already exists")

	// ErrHasChildren is returned when deleting a category with subcategories.
	ErrHasChildren = errors.New("category has subcategories")

	// ErrHasArticles is returned when deleting a category that still owns articles.
	ErrHasArticles = errors.New("category has articles")

	// ErrNestingTooDeep is returned when a category would become the child of
	// a subcategory, or a parent would become a subcategory.
	ErrNestingTooDeep = errors.New("categories nest at most one level")

	// ErrCategoryNotFound is returned when an article or category refers to a
	// category that does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrBlockNotFound is returned by block sequence edits given an unknown block id.
	ErrBlockNotFound = errors.New("block not found")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// pgForeignKeyViolation is the PostgreSQL SQLSTATE for foreign_key_violation.
const pgForeignKeyViolation = "23503"

// isPgError reports whether err carries the given PostgreSQL error code.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
