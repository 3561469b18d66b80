// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"sync"
	"testing"

	"studynotes/internal/database"
)

// testDSN builds the connection string from the POSTGRES_* variables,
// defaulting to the docker-compose database.
func testDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envOr("POSTGRES_USER", "studynotes"), envOr("POSTGRES_PASSWORD", "changeme")),
		Host:     envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432"),
		Path:     envOr("POSTGRES_DB", "studynotes"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var migrateOnce struct {
	sync.Once
	err error
}

// testDB connects to the test database, migrating it on first use in the
// package. Skips the test when PostgreSQL is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(testDSN())
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrateOnce.Do(func() { migrateOnce.err = database.Migrate(db) })
	if migrateOnce.err != nil {
		t.Fatalf("migrate: %v", migrateOnce.err)
	}
	return db
}

// deleteWhere removes the rows of table whose column matches one of values.
func deleteWhere(t *testing.T, db *sql.DB, table, column string, values ...string) {
	t.Helper()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column)
	for _, v := range values {
		if _, err := db.Exec(query, v); err != nil {
			t.Logf("cleanup %s %s=%s: %v", table, column, v, err)
		}
	}
}

func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	deleteWhere(t, db, "users", "email", emails...)
}

func cleanArticles(t *testing.T, db *sql.DB, slugs ...string) {
	deleteWhere(t, db, "articles", "slug", slugs...)
}

// cleanCategories removes categories by slug, their subcategories first.
// Articles in them must already be gone.
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE parent_id IN (SELECT id FROM categories WHERE slug = $1)", slug)
	}
	deleteWhere(t, db, "categories", "slug", slugs...)
}
