// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"studynotes/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

// AdminBcryptCost is the bcrypt cost used for accounts created from the CLI.
const AdminBcryptCost = 12

// SeedCategory is one entry of the seed catalogue.
type SeedCategory struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Icon        models.Icon    `yaml:"icon"`
	BgColor     string         `yaml:"bgColor"`
	TextColor   string         `yaml:"textColor"`
	IconColor   string         `yaml:"iconColor"`
	Order       int            `yaml:"order"`
	Children    []SeedCategory `yaml:"children"`
}

// SeedCatalogue parses the embedded category catalogue.
func SeedCatalogue() ([]SeedCategory, error) {
	var doc struct {
		Categories []SeedCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse seed catalogue: %w", err)
	}
	return doc.Categories, nil
}

// Seed upserts the category catalogue by slug. With reset, all articles and
// categories are deleted first. Everything runs in one transaction.
func Seed(ctx context.Context, db *sql.DB, reset bool) error {
	catalogue, err := SeedCatalogue()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	if reset {
		// Children go before parents because of the self reference.
		for _, q := range []string{
			`DELETE FROM articles`,
			`DELETE FROM categories WHERE parent_id IS NOT NULL`,
			`DELETE FROM categories`,
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("seed reset: %w", err)
			}
		}
		slog.Info("cleared existing categories and articles")
	}

	for _, c := range catalogue {
		parentID, err := upsertSeedCategory(ctx, tx, c, nil)
		if err != nil {
			return err
		}
		for _, child := range c.Children {
			// Subcategories share the look of their parent.
			child.Icon = c.Icon
			child.BgColor, child.TextColor, child.IconColor = c.BgColor, c.TextColor, c.IconColor
			if _, err := upsertSeedCategory(ctx, tx, child, &parentID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded", "categories", countSeed(catalogue), "reset", reset)
	return nil
}

func upsertSeedCategory(ctx context.Context, tx *sql.Tx, c SeedCategory, parentID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, icon, bg_color, text_color, icon_color, sort_order, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, icon = EXCLUDED.icon,
			bg_color = EXCLUDED.bg_color, text_color = EXCLUDED.text_color,
			icon_color = EXCLUDED.icon_color, sort_order = EXCLUDED.sort_order,
			parent_id = EXCLUDED.parent_id, updated_at = NOW()
		RETURNING id
	`, c.Name, c.Slug, c.Description, c.Icon.OrDefault(), c.BgColor, c.TextColor, c.IconColor, c.Order, parentID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("seed category %s: %w", c.Slug, err)
	}
	slog.Debug("seeded category", "slug", c.Slug, "parent", parentID != nil)
	return id, nil
}

func countSeed(cats []SeedCategory) int {
	n := 0
	for _, c := range cats {
		n += 1 + len(c.Children)
	}
	return n
}

// CreateAdmin inserts an admin account unless one with the email exists.
// It reports whether a user was created.
func CreateAdmin(ctx context.Context, db *sql.DB, email, password, name string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, fmt.Errorf("create admin: email and password are required")
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("create admin check: %w", err)
	}
	if exists {
		slog.Info("admin user already exists, skipping", "email", email)
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), AdminBcryptCost)
	if err != nil {
		return false, fmt.Errorf("create admin bcrypt: %w", err)
	}

	// 2FA is not enabled; it can be set up from the admin area.
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, email, string(hash), name, string(models.RoleAdmin), false)
	if err != nil {
		return false, fmt.Errorf("create admin insert: %w", err)
	}

	slog.Info("admin user created", "email", email)
	return true, nil
}
