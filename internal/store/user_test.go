// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studynotes/internal/models"
)

// newUser creates a user with password "secret-pass" and removes it after the test.
func newUser(t *testing.T, s *UserStore, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	if u, _ := s.FindByEmail(ctx, email); u != nil {
		s.Delete(ctx, u.ID)
	}
	u, err := s.Create(ctx, email, "secret-pass", "Store Test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Delete(context.Background(), u.ID) })
	return u
}

// reloadUser fetches the stored user by id.
func reloadUser(t *testing.T, s *UserStore, id uuid.UUID) *models.User {
	t.Helper()
	u, err := s.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if u == nil {
		t.Fatal("user not found")
	}
	return u
}

func TestUserStoreCreate(t *testing.T) {
	s := NewUserStore(testDB(t))

	u := newUser(t, s, "  Create@Store-Test.local ")

	if u.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
	if u.Email != "create@store-test.local" {
		t.Errorf("Email: got %q, want it normalised", u.Email)
	}
	if u.DisplayName != "Store Test" || u.Role != models.RoleAdmin {
		t.Errorf("got %q/%q, want Store Test/admin", u.DisplayName, u.Role)
	}
	if u.TOTPEnabled || u.TOTPSecret != nil || u.LastLoginAt != nil {
		t.Error("a new user has no TOTP and no login")
	}
	if u.PasswordHash == "secret-pass" || !CheckPassword(u, "secret-pass") {
		t.Error("password must be stored hashed and still verify")
	}

	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != PasswordCost {
		t.Errorf("cost: got %d, want %d", cost, PasswordCost)
	}
}

func TestUserStoreCreateDuplicate(t *testing.T) {
	s := NewUserStore(testDB(t))
	newUser(t, s, "dupe@store-test.local")

	_, err := s.Create(context.Background(), "DUPE@store-test.local", "x", "Second")
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("got %v, want an already registered error", err)
	}
}

func TestUserStoreFind(t *testing.T) {
	s := NewUserStore(testDB(t))
	ctx := context.Background()

	if u, err := s.FindByEmail(ctx, "nobody@store-test.local"); err != nil || u != nil {
		t.Errorf("FindByEmail missing: got %v, %v", u, err)
	}
	if u, err := s.FindByID(ctx, uuid.New()); err != nil || u != nil {
		t.Errorf("FindByID missing: got %v, %v", u, err)
	}

	u := newUser(t, s, "find@store-test.local")

	byEmail, err := s.FindByEmail(ctx, "FIND@store-test.local")
	if err != nil || byEmail == nil {
		t.Fatalf("FindByEmail: got %v, %v", byEmail, err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("FindByEmail id: got %s, want %s", byEmail.ID, u.ID)
	}

	if got := reloadUser(t, s, u.ID); got.Email != u.Email {
		t.Errorf("FindByID email: got %q, want %q", got.Email, u.Email)
	}
}

func TestUserStoreAuthenticate(t *testing.T) {
	s := NewUserStore(testDB(t))
	ctx := context.Background()
	u := newUser(t, s, "auth@store-test.local")

	got, err := s.Authenticate(ctx, " Auth@store-test.local", "secret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id: got %s, want %s", got.ID, u.ID)
	}

	for name, creds := range map[string][2]string{
		"wrong password": {"auth@store-test.local", "nope"},
		"empty password": {"auth@store-test.local", ""},
		"unknown email":  {"ghost@store-test.local", "secret-pass"},
	} {
		if _, err := s.Authenticate(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: got %v, want ErrInvalidCredentials", name, err)
		}
	}
}

func TestUserStoreSetPassword(t *testing.T) {
	s := NewUserStore(testDB(t))
	ctx := context.Background()
	u := newUser(t, s, "password@store-test.local")

	if err := s.SetPassword(ctx, u.ID, "rotated-pass"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if _, err := s.Authenticate(ctx, u.Email, "secret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Authenticate(ctx, u.Email, "rotated-pass"); err != nil {
		t.Errorf("new password: %v", err)
	}
}

func TestUserStoreRecordLogin(t *testing.T) {
	s := NewUserStore(testDB(t))
	u := newUser(t, s, "login@store-test.local")

	if err := s.RecordLogin(context.Background(), u.ID); err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}

	got := reloadUser(t, s, u.ID)
	if got.LastLoginAt == nil {
		t.Fatal("LastLoginAt not set")
	}
	if got.LastLoginAt.Before(got.CreatedAt) {
		t.Errorf("LastLoginAt %v before CreatedAt %v", got.LastLoginAt, got.CreatedAt)
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	s := NewUserStore(testDB(t))
	ctx := context.Background()
	u := newUser(t, s, "totp@store-test.local")

	// Enabling without a secret changes nothing.
	if err := s.EnableTOTP(ctx, u.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	if reloadUser(t, s, u.ID).TOTPEnabled {
		t.Error("TOTP enabled without a secret")
	}

	if err := s.SetTOTPSecret(ctx, u.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	got := reloadUser(t, s, u.ID)
	if got.TOTPSecret == nil || *got.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("secret not stored: %v", got.TOTPSecret)
	}
	if got.TOTPEnabled {
		t.Error("a pending secret is not enabled")
	}
	if next := got.NextFactor(true); next != models.SecondFactorEnroll {
		t.Errorf("NextFactor(true): got %v, want enroll", next)
	}

	if err := s.EnableTOTP(ctx, u.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	got = reloadUser(t, s, u.ID)
	if !got.TOTPEnabled {
		t.Error("TOTP not enabled")
	}
	if next := got.NextFactor(false); next != models.SecondFactorVerify {
		t.Errorf("NextFactor(false): got %v, want verify", next)
	}

	if err := s.ResetTOTP(ctx, u.ID); err != nil {
		t.Fatalf("ResetTOTP: %v", err)
	}
	got = reloadUser(t, s, u.ID)
	if got.TOTPSecret != nil || got.TOTPEnabled {
		t.Error("ResetTOTP left TOTP configured")
	}
}

func TestUserStoreDelete(t *testing.T) {
	s := NewUserStore(testDB(t))
	ctx := context.Background()
	u := newUser(t, s, "delete@store-test.local")

	if err := s.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := s.FindByID(ctx, u.ID); err != nil || got != nil {
		t.Errorf("after Delete: got %v, %v", got, err)
	}
}
