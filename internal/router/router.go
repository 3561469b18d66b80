// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains of the
// study notes server. Routes are organized into the JSON API, the admin
// area and the public site, each with its own middleware stack.
package router

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"studynotes/internal/blocks"
	"studynotes/internal/handlers"
	"studynotes/internal/middleware"
	"studynotes/internal/session"
	"studynotes/web"
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Admin  *handlers.Admin
	Auth   *handlers.Auth
	API    *handlers.API
	Public *handlers.Public
}

// Options tunes the middleware stacks.
type Options struct {
	// CORSOrigins lists the origins allowed to call /api with credentials.
	CORSOrigins []string
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	// LoginLimiter throttles login attempts; nil disables throttling.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Static assets.
	r.Get("/static/css/chroma.css", chromaCSSHandler)
	r.Handle("/static/*", staticHandler())

	// JSON API. Reads are public; drafts are filtered per caller.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.API.ListCategories)
			r.Get("/{slug}", h.API.GetCategory)
			r.Get("/id/{id}", h.API.GetCategoryByID)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAPIAuth)
				r.Post("/", h.API.CreateCategory)
				r.Put("/id/{id}", h.API.UpdateCategory)
				r.Delete("/id/{id}", h.API.DeleteCategory)
			})
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.API.ListArticles)
			r.Get("/{slug}", h.API.GetArticle)
			r.Get("/id/{id}", h.API.GetArticleByID)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAPIAuth)
				r.Post("/", h.API.CreateArticle)
				r.Put("/{slug}", h.API.UpdateArticle)
				r.Delete("/{slug}", h.API.DeleteArticle)
				r.Put("/id/{id}", h.API.UpdateArticleByID)
				r.Delete("/id/{id}", h.API.DeleteArticleByID)
			})
		})
	})

	// Admin routes: CSRF everywhere, a session everywhere but the login page.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Get("/login", h.Auth.LoginPage)
		if opts.LoginLimiter != nil {
			r.With(opts.LoginLimiter.Middleware).Post("/login", h.Auth.LoginSubmit)
		} else {
			r.Post("/login", h.Auth.LoginSubmit)
		}
		r.Post("/logout", h.Auth.Logout)

		// 2FA: requires a session but not a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
			r.Post("/2fa/setup", h.Auth.TwoFASetupSubmit)
			r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
		})

		// Signed-in admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin)

			r.Get("/", h.Admin.Dashboard)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Admin.CategoriesList)
				r.Get("/new", h.Admin.CategoryNew)
				r.Post("/", h.Admin.CategoryCreate)
				r.Get("/{id}/edit", h.Admin.CategoryEdit)
				r.Post("/{id}", h.Admin.CategoryUpdate)
				r.Delete("/{id}", h.Admin.CategoryDelete)
			})

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", h.Admin.ArticlesList)
				r.Get("/new", h.Admin.ArticleNew)
				r.Post("/", h.Admin.ArticleCreate)
				r.Get("/{id}/edit", h.Admin.ArticleEdit)
				r.Post("/{id}", h.Admin.ArticleUpdate)
				r.Delete("/{id}", h.Admin.ArticleDelete)

				r.Route("/{id}/blocks", func(r chi.Router) {
					r.Get("/new", h.Admin.BlockNew)
					r.Post("/", h.Admin.BlockCreate)
					r.Post("/rows", h.Admin.BlockRows)
					r.Post("/move", h.Admin.BlockMove)
					r.Get("/{blockID}/edit", h.Admin.BlockEdit)
					r.Put("/{blockID}", h.Admin.BlockUpdate)
					r.Delete("/{blockID}", h.Admin.BlockDelete)
					r.Post("/{blockID}/up", h.Admin.BlockUp)
					r.Post("/{blockID}/down", h.Admin.BlockDown)
				})
			})
		})
	})

	// Public site.
	r.Get("/", h.Public.Homepage)
	r.Get("/*", h.Public.CatchAll)
	r.NotFound(h.Public.NotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// chromaCSSHandler serves the stylesheet of highlighted code blocks.
func chromaCSSHandler(w http.ResponseWriter, r *http.Request) {
	css, err := blocks.HighlightCSS()
	if err != nil {
		slog.Error("generate highlight css failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(css))
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(w, r)
	})
}
