// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for users, categories, articles
// and the cache invalidation log. Each store wraps a *sql.DB; lookups
// that find nothing return nil, nil.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studynotes/internal/models"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email
// or a wrong password. Both cases return the same error.
var ErrInvalidCredentials = errors.New("invalid email or password")

// PasswordCost is the bcrypt cost of stored password hashes.
const PasswordCost = 12

// dummyHash is compared against when the email is unknown so a failed
// login costs one bcrypt round either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("studynotes-no-such-user"), PasswordCost)

// UserStore reads and writes admin accounts.
type UserStore struct {
	db *sql.DB
}

// NewUserStore returns a UserStore on db.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, password_hash, display_name, role, totp_secret,
	totp_enabled, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.TOTPSecret,
		&u.TOTPEnabled, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByEmail returns the user with email, or nil.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.findOne(ctx, `email = $1`, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID returns the user with id, or nil.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.findOne(ctx, `id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Authenticate checks email and password and returns the matching user.
// A mismatch of either yields ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Create inserts an admin with a bcrypt hash of password.
func (s *UserStore) Create(ctx context.Context, email, password, displayName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		NormalizeEmail(email), string(hash), displayName, string(models.RoleAdmin),
	))
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, fmt.Errorf("create user %s: email already registered", NormalizeEmail(email))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SetPassword replaces the password hash of a user.
func (s *UserStore) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.exec(ctx, "set password",
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, string(hash), userID)
}

// RecordLogin stamps the time of a completed sign-in.
func (s *UserStore) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	return s.exec(ctx, "record login", `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
}

// SetTOTPSecret stores a pending authenticator secret. It only takes
// effect once EnableTOTP confirms a code generated from it.
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	return s.exec(ctx, "set totp secret",
		`UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2`, secret, userID)
}

// EnableTOTP turns on the second factor for a user.
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.exec(ctx, "enable totp",
		`UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1 AND totp_secret IS NOT NULL`, userID)
}

// ResetTOTP removes the authenticator of a user.
func (s *UserStore) ResetTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.exec(ctx, "reset totp",
		`UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1`, userID)
}

// Delete removes a user.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.exec(ctx, "delete user", `DELETE FROM users WHERE id = $1`, userID)
}

func (s *UserStore) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash of u.
func CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
