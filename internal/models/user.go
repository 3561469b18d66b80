// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the domain types shared by the stores, handlers and
// renderers: users, categories, articles and their content blocks.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's permission level. Only authors with the admin role
// exist; readers never sign in.
type Role string

const (
	RoleAdmin Role = "admin"
)

// User is an author who can sign in to the admin area.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Role         Role       `json:"role"`
	TOTPSecret   *string    `json:"-"`
	TOTPEnabled  bool       `json:"totp_enabled"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SecondFactor tells the login flow what a user must do after the
// password check.
type SecondFactor int

const (
	// SecondFactorNone means the password alone completes the login.
	SecondFactorNone SecondFactor = iota
	// SecondFactorVerify means a code from the enrolled authenticator is due.
	SecondFactorVerify
	// SecondFactorEnroll means the user has to register an authenticator first.
	SecondFactorEnroll
)

// NextFactor returns the step after a correct password. require makes
// enrollment mandatory for users without an authenticator.
func (u *User) NextFactor(require bool) SecondFactor {
	switch {
	case u.TOTPEnabled:
		return SecondFactorVerify
	case require:
		return SecondFactorEnroll
	default:
		return SecondFactorNone
	}
}
