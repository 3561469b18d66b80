// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session keeps admin sessions in Valkey. The browser only holds
// an opaque random id in a cookie; the payload lives server side as JSON
// and expires with the key TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the session cookie sent to the browser.
	CookieName = "sn_session"

	// DefaultTTL bounds an idle session.
	DefaultTTL = 24 * time.Hour

	keyPrefix = "session:"

	// 32 random bytes, hex encoded.
	idLength = 32
)

// ErrNoSession is returned by operations that need an existing session
// cookie when the request carries none.
var ErrNoSession = errors.New("session: no session cookie")

// Data is the payload stored for a signed-in user. TwoFADone flips to
// true once the TOTP step has been passed, or immediately when no second
// factor is configured or required.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	TOTPEnabled bool      `json:"totp_enabled"`
	TwoFADone   bool      `json:"two_fa_done"`
	Callback    string    `json:"callback,omitempty"` // admin path to open once 2FA is done
	CreatedAt   time.Time `json:"created_at"`
}

// Authenticated reports whether the session grants access to the admin area.
func (d *Data) Authenticated() bool {
	return d != nil && d.TwoFADone
}

// Store reads and writes sessions in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore returns a store on client. secure sets the Secure flag on the
// cookie and should be on whenever the site is served over TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

// Create starts a new session for data and sets the cookie on w.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	data.CreatedAt = time.Now().UTC()

	id, err := s.save(ctx, "", data)
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	s.setCookie(w, id, int(s.ttl.Seconds()))
	return id, nil
}

// Get loads the session named by the request cookie. A missing cookie or
// an expired key yields nil, nil.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := cookieID(r)
	if !ok {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &data, nil
}

// Update overwrites the payload under the current id and refreshes its TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	id, ok := cookieID(r)
	if !ok {
		return ErrNoSession
	}
	if _, err := s.save(ctx, id, data); err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

// Rotate moves data to a fresh id, drops the old key and reissues the
// cookie. Call it whenever the privilege level of a session changes.
func (s *Store) Rotate(ctx context.Context, w http.ResponseWriter, r *http.Request, data *Data) error {
	oldID, ok := cookieID(r)
	if !ok {
		return ErrNoSession
	}

	id, err := s.save(ctx, "", data)
	if err != nil {
		return fmt.Errorf("session rotate: %w", err)
	}
	if err := s.client.Del(ctx, keyPrefix+oldID).Err(); err != nil {
		return fmt.Errorf("session rotate: drop old key: %w", err)
	}
	s.setCookie(w, id, int(s.ttl.Seconds()))
	return nil
}

// Destroy deletes the session and expires the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, ok := cookieID(r)
	if !ok {
		return nil
	}
	s.setCookie(w, "", -1)
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// save writes data under id, generating one when id is empty.
func (s *Store) save(ctx context.Context, id string, data *Data) (string, error) {
	if id == "" {
		var err error
		if id, err = newID(); err != nil {
			return "", err
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func cookieID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func newID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
