// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"studynotes/internal/models"
	"studynotes/internal/session"
)

type contextKey string

const (
	// SessionKey is the context key holding the *session.Data of a request.
	SessionKey contextKey = "session"

	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/admin/login"

	// CallbackParam carries the page to return to after login.
	CallbackParam = "callbackUrl"

	twoFAVerifyPath = "/admin/2fa/verify"
	twoFASetupPath  = "/admin/2fa/setup"
)

// LoadSession attaches the caller's session, if any, to the request
// context. It never rejects a request; a Valkey error reads as signed out.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "path", r.URL.Path, "error", err)
			}
			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth sends callers without a session to the login page with the
// requested URL as callback.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			target := LoginPath + "?" + url.Values{CallbackParam: {callbackFor(r)}}.Encode()
			redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA holds a password-only session at the second factor: the code
// prompt for enrolled users, the enrollment page for everyone else.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			target := twoFASetupPath
			if sess.TOTPEnabled {
				target = twoFAVerifyPath
			}
			redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin answers 403 unless the session belongs to an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || models.Role(sess.Role) != models.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIAuth answers a JSON 401 to callers that are not fully signed in.
func RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r.Context()) {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAuthenticated reports whether the request carries a fully signed-in
// session, second factor included.
func IsAuthenticated(ctx context.Context) bool {
	return SessionFromCtx(ctx).Authenticated()
}

// SessionFromCtx returns the session loaded by LoadSession, or nil.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// redirect issues a normal redirect, or an HX-Redirect for htmx requests
// so the browser leaves the page instead of swapping the target into a
// fragment.
func redirect(w http.ResponseWriter, r *http.Request, target string, code int) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, code)
}

// callbackFor is the URL to come back to after login. For htmx requests
// that is the page the fragment was requested from, not the fragment.
func callbackFor(r *http.Request) string {
	if r.Header.Get("HX-Request") == "true" {
		if u, err := url.Parse(r.Header.Get("HX-Current-URL")); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	return r.URL.RequestURI()
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}
