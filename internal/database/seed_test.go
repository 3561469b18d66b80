// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"studynotes/internal/models"
)

func TestSeedCatalogue(t *testing.T) {
	cats, err := SeedCatalogue()
	if err != nil {
		t.Fatalf("SeedCatalogue: %v", err)
	}
	if len(cats) != 8 {
		t.Fatalf("expected 8 top-level categories, got %d", len(cats))
	}

	seen := map[string]bool{}
	for i, c := range cats {
		if c.Order != i+1 {
			t.Errorf("%s: order = %d, want %d", c.Slug, c.Order, i+1)
		}
		if !c.Icon.Valid() {
			t.Errorf("%s: invalid icon %q", c.Slug, c.Icon)
		}
		for _, s := range append([]SeedCategory{c}, c.Children...) {
			if seen[s.Slug] {
				t.Errorf("duplicate slug %q", s.Slug)
			}
			seen[s.Slug] = true
		}
	}
	if countSeed(cats) != 13 {
		t.Errorf("expected 13 categories in total, got %d", countSeed(cats))
	}
}

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Without reset, Seed only upserts, so it is safe to run alongside other
	// test packages sharing the database.
	ctx := context.Background()
	if err := Seed(ctx, db, false); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db, false); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories WHERE slug = 'algorithms'").Scan(&count); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 algorithms category, got %d", count)
	}

	// Subcategories take the parent's look.
	var icon, bg, parentSlug string
	err = db.QueryRow(`
		SELECT c.icon, c.bg_color, p.slug
		FROM categories c JOIN categories p ON p.id = c.parent_id
		WHERE c.slug = 'dynamic-programming'
	`).Scan(&icon, &bg, &parentSlug)
	if err != nil {
		t.Fatalf("query subcategory: %v", err)
	}
	if icon != string(models.IconCode) || bg != "bg-green-50" || parentSlug != "algorithms" {
		t.Errorf("dynamic-programming = (%s, %s, %s), want (Code, bg-green-50, algorithms)", icon, bg, parentSlug)
	}
}

func TestCreateAdmin(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	const email = "create-admin-test@studynotes.local"
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE email = $1", email) })

	ctx := context.Background()
	created, err := CreateAdmin(ctx, db, " Create-Admin-Test@studynotes.local ", "s3cret-pass", "Tester")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if !created {
		t.Fatal("expected the user to be created")
	}

	var hash string
	if err := db.QueryRow("SELECT password_hash FROM users WHERE email = $1", email).Scan(&hash); err != nil {
		t.Fatalf("query user: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost != AdminBcryptCost {
		t.Errorf("bcrypt cost = %d, want %d", cost, AdminBcryptCost)
	}

	created, err = CreateAdmin(ctx, db, email, "other", "Tester")
	if err != nil {
		t.Fatalf("second CreateAdmin: %v", err)
	}
	if created {
		t.Error("second CreateAdmin should skip the existing user")
	}
}

func TestCreateAdminRequiresCredentials(t *testing.T) {
	if _, err := CreateAdmin(context.Background(), nil, "", "x", "Admin"); err == nil {
		t.Error("expected error for empty email")
	}
}
