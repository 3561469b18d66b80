// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Shared fixtures for the handler tests. Tests skip when PostgreSQL or
// Valkey is unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studynotes/internal/blocks"
	"studynotes/internal/cache"
	"studynotes/internal/database"
	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/session"
	"studynotes/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var migrateOnce sync.Once

// testDB connects to the test PostgreSQL, skipping when it is down.
// Migrations run once per test binary.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envOr("POSTGRES_USER", "studynotes"), envOr("POSTGRES_PASSWORD", "changeme")),
		Host:     net.JoinHostPort(envOr("POSTGRES_HOST", "localhost"), envOr("POSTGRES_PORT", "5432")),
		Path:     envOr("POSTGRES_DB", "studynotes"),
		RawQuery: "sslmode=disable",
	}
	db, err := database.Connect(dsn.String())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var migrateErr error
	migrateOnce.Do(func() { migrateErr = database.Migrate(db) })
	if migrateErr != nil {
		t.Fatalf("migrate: %v", migrateErr)
	}
	return db
}

// testValkey returns a client on DB 15 and wipes the session and page keys
// it leaves behind.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379")),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			iter := client.Scan(ctx, 0, pattern, 100).Iterator()
			for iter.Next(ctx) {
				client.Del(ctx, iter.Val())
			}
		}
		client.Close()
	})
	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Categories *store.CategoryStore
	Articles   *store.ArticleStore
	Users      *store.UserStore
	CacheLog   *store.CacheLogStore
	PageCache  *cache.PageCache
	Admin      *Admin
	Auth       *Auth
	API        *API
	Public     *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkey(t)

	renderer, err := render.New(true, "Study Notes")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	blockRenderer, err := blocks.NewRenderer()
	if err != nil {
		t.Fatalf("blocks.NewRenderer: %v", err)
	}

	sessions := session.NewStore(vk, false)
	categories := store.NewCategoryStore(db)
	articles := store.NewArticleStore(db)
	users := store.NewUserStore(db)
	cacheLog := store.NewCacheLogStore(db)
	pageCache := cache.NewPageCache(vk, time.Minute)
	inv := NewInvalidator(pageCache, cacheLog)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Categories: categories,
		Articles:   articles,
		Users:      users,
		CacheLog:   cacheLog,
		PageCache:  pageCache,
		Admin:      NewAdmin(renderer, blockRenderer, categories, articles, cacheLog, inv),
		Auth:       NewAuth(renderer, sessions, users, "Study Notes", false),
		API:        NewAPI(categories, articles, inv),
		Public:     NewPublic(renderer, blockRenderer, categories, articles, pageCache),
	}
}

func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// signedIn returns r carrying a fully authenticated admin session.
func signedIn(r *http.Request) *http.Request {
	sess := testSession(uuid.New(), "author@studynotes.test", string(models.RoleAdmin), true)
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

func withChiURLParam(r *http.Request, key, value string) *http.Request {
	return withChiURLParams(r, key, value)
}

// withChiURLParams sets chi URL parameters from key, value pairs, keeping
// any session already on the request context.
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// mustCategory creates a category or fails the test. The category and
// everything below it are removed when the test ends.
func mustCategory(t *testing.T, env *testEnv, slug string, parentID *uuid.UUID) *models.Category {
	t.Helper()
	c, err := env.Categories.Create(context.Background(), &models.Category{
		Name:     "Test " + slug,
		Slug:     slug,
		Icon:     models.IconCode,
		BgColor:  "bg-green-50",
		Order:    1,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("create category %s: %v", slug, err)
	}
	t.Cleanup(func() { cleanCategory(env.DB, c.ID) })
	return c
}

// mustArticle creates an article in categoryID or fails the test.
func mustArticle(t *testing.T, env *testEnv, slug string, categoryID uuid.UUID, status models.ArticleStatus, seq models.Blocks) *models.Article {
	t.Helper()
	a, err := env.Articles.Create(context.Background(), &models.Article{
		Title:      "Test " + slug,
		Slug:       slug,
		CategoryID: categoryID,
		Status:     status,
		Blocks:     seq,
	})
	if err != nil {
		t.Fatalf("create article %s: %v", slug, err)
	}
	t.Cleanup(func() { cleanArticles(env.DB, slug) })
	return a
}

// cleanArticles removes test articles by slug.
func cleanArticles(db *sql.DB, slugs ...string) {
	for _, s := range slugs {
		db.Exec("DELETE FROM articles WHERE slug = $1", s)
	}
}

// cleanCategory removes a category together with its subcategories and
// all their articles.
func cleanCategory(db *sql.DB, id uuid.UUID) {
	db.Exec(`DELETE FROM articles WHERE category_id = $1
		OR category_id IN (SELECT id FROM categories WHERE parent_id = $1)`, id)
	db.Exec("DELETE FROM categories WHERE parent_id = $1", id)
	db.Exec("DELETE FROM categories WHERE id = $1", id)
}

// cleanCategorySlugs removes categories created through a handler.
func cleanCategorySlugs(db *sql.DB, slugs ...string) {
	for _, s := range slugs {
		var id uuid.UUID
		if err := db.QueryRow("SELECT id FROM categories WHERE slug = $1", s).Scan(&id); err == nil {
			cleanCategory(db, id)
		}
	}
}
