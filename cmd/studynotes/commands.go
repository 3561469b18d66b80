// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"studynotes/internal/cache"
	"studynotes/internal/database"
	"studynotes/internal/snapshot"
	"studynotes/internal/storage"
	"studynotes/internal/store"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !status {
				db, err := openDB()
				if err != nil {
					return err
				}
				return db.Close()
			}

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			states, err := database.MigrationStatus(cmd.Context(), db)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tFILE\tAPPLIED")
			for _, s := range states {
				applied := "pending"
				if s.Applied {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.File, applied)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and their state instead of applying them")

	return cmd
}

func seedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the default category catalogue",
		Long:  "Inserts the built-in category catalogue. Existing categories are kept unless --reset is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Seed(ctx, db, reset); err != nil {
				return err
			}
			flushPages(ctx, db)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "delete all articles and categories before seeding")

	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, name string
	var resetPassword, reset2FA bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account",
		Long: "Creates an admin user from flags or ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME. " +
			"Does nothing if the email is taken. --reset-password and --reset-2fa act on an existing account instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = cfg.AdminEmail
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			if name == "" {
				name = cfg.AdminName
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if resetPassword || reset2FA {
				return resetAdmin(ctx, store.NewUserStore(db), email, password, resetPassword, reset2FA)
			}

			created, err := database.CreateAdmin(ctx, db, email, password, name)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Created admin %s\n", email)
			} else {
				fmt.Printf("Admin %s already exists\n", email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email (default $ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default $ADMIN_NAME)")
	cmd.Flags().BoolVar(&resetPassword, "reset-password", false, "set the password of an existing admin")
	cmd.Flags().BoolVar(&reset2FA, "reset-2fa", false, "remove the authenticator of an existing admin")

	return cmd
}

// resetAdmin recovers access to an existing account.
func resetAdmin(ctx context.Context, users *store.UserStore, email, password string, resetPassword, reset2FA bool) error {
	if resetPassword && password == "" {
		return fmt.Errorf("reset password: a new password is required")
	}
	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("no user with email %s", email)
	}
	if resetPassword {
		if err := users.SetPassword(ctx, u.ID, password); err != nil {
			return err
		}
		fmt.Printf("Password of %s updated\n", u.Email)
	}
	if reset2FA {
		if err := users.ResetTOTP(ctx, u.ID); err != nil {
			return err
		}
		fmt.Printf("Two-factor authentication of %s removed\n", u.Email)
	}
	slog.Info("admin account reset", "email", u.Email, "password", resetPassword, "2fa", reset2FA)
	return nil
}

func snapshotCmd() *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export and import content snapshots in S3",
	}

	exportCmd := &cobra.Command{
		Use:   "export [key]",
		Short: "Upload all categories and articles as one JSON object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := snapshot.DefaultKey(time.Now())
			if len(args) == 1 {
				key = args[0]
			}
			return withSnapshots(cmd.Context(), func(svc *snapshot.Service) error {
				key, err := svc.Export(cmd.Context(), key)
				if err != nil {
					return err
				}
				fmt.Printf("Exported %s\n", key)
				return nil
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <key>",
		Short: "Replace all content with a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd.Context(), func(svc *snapshot.Service) error {
				snap, err := svc.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d categories and %d articles from %s\n",
					len(snap.Categories), len(snap.Articles), args[0])
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := snapshotStorage()
			if err != nil {
				return err
			}
			objects, err := client.List(cmd.Context(), snapshot.KeyPrefix)
			if err != nil {
				return err
			}

			if len(objects) == 0 {
				fmt.Printf("No snapshots in bucket %s\n", client.Bucket())
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.HasPrefix(args[0], snapshot.KeyPrefix) {
				return fmt.Errorf("refusing to delete %q: not a snapshot key", args[0])
			}
			client, err := snapshotStorage()
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}

	snapshotCmd.AddCommand(exportCmd, importCmd, listCmd, deleteCmd)
	return snapshotCmd
}

func snapshotStorage() (*storage.Client, error) {
	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("snapshot storage is not configured: set S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY")
	}
	return client, nil
}

// withSnapshots opens the database, S3 and (when reachable) Valkey, then
// runs fn with a snapshot service bound to them.
func withSnapshots(ctx context.Context, fn func(*snapshot.Service) error) error {
	client, err := snapshotStorage()
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var pages *cache.PageCache
	valkeyClient, err := cache.Connect(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, cached pages will expire on their own", "error", err)
	} else {
		defer valkeyClient.Close()
		pages = cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	}

	return fn(snapshot.New(db, client, pages, store.NewCacheLogStore(db)))
}

// flushPages drops every cached page after a bulk change and records it in
// the invalidation log. A missing Valkey only logs a warning.
func flushPages(ctx context.Context, db *sql.DB) {
	store.NewCacheLogStore(db).Log(ctx, store.EntitySite, uuid.Nil, store.ActionSeed)

	valkeyClient, err := cache.Connect(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, cached pages will expire on their own", "error", err)
		return
	}
	defer valkeyClient.Close()
	n, err := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL).Purge(ctx)
	if err != nil {
		slog.Warn("page cache purge failed", "error", err)
		return
	}
	slog.Info("page cache purged", "deleted", n)
}
