// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"studynotes/internal/blocks"
	"studynotes/internal/cache"
	"studynotes/internal/handlers"
	"studynotes/internal/middleware"
	"studynotes/internal/render"
	"studynotes/internal/router"
	"studynotes/internal/session"
	"studynotes/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second

	loginAttempts = 10
	loginWindow   = time.Minute

	cacheLogPruneInterval = 6 * time.Hour
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	valkeyClient, err := cache.Connect(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, !cfg.IsDev())

	renderer, err := render.New(cfg.IsDev(), cfg.SiteName)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	blockRenderer, err := blocks.NewRenderer()
	if err != nil {
		return fmt.Errorf("load block templates: %w", err)
	}

	categoryStore := store.NewCategoryStore(db)
	articleStore := store.NewArticleStore(db)
	userStore := store.NewUserStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	inv := handlers.NewInvalidator(pageCache, cacheLogStore)

	loginLimiter := middleware.NewRateLimiter(loginAttempts, loginWindow)
	defer loginLimiter.Stop()

	r := router.New(sessionStore, router.Handlers{
		Admin:  handlers.NewAdmin(renderer, blockRenderer, categoryStore, articleStore, cacheLogStore, inv),
		Auth:   handlers.NewAuth(renderer, sessionStore, userStore, cfg.SiteName, cfg.Require2FA),
		API:    handlers.NewAPI(categoryStore, articleStore, inv),
		Public: handlers.NewPublic(renderer, blockRenderer, categoryStore, articleStore, pageCache),
	}, router.Options{
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: !cfg.IsDev(),
		LoginLimiter:  loginLimiter,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		cacheLogStore.RunPruner(ctx, cacheLogPruneInterval, store.CacheLogRetention)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})
	return g.Wait()
}
