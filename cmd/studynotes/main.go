// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the studynotes command. With no subcommand it starts the
// HTTP server; the subcommands cover migrations, seeding, admin bootstrap
// and S3 snapshots.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studynotes/internal/config"
	"studynotes/internal/database"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "studynotes",
		Short: "Study notes CMS",
		Long:  "Serves the study notes site, its admin area and JSON API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			setupLogging(cfg)
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
		createAdminCmd(),
		snapshotCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging installs the default logger: JSON in production, text otherwise.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openDB connects to PostgreSQL and applies pending migrations.
func openDB() (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
