// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"studynotes/internal/middleware"
	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/session"
	"studynotes/internal/store"
)

// adminHome is where a completed sign-in lands without a callback.
const adminHome = "/admin"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer   *render.Renderer
	sessions   *session.Store
	userStore  *store.UserStore
	siteName   string
	require2FA bool
}

// NewAuth creates a new Auth handler group. When require2FA is set, users
// without TOTP are sent to enrollment after their password is accepted.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, siteName string, require2FA bool) *Auth {
	return &Auth{
		renderer:   renderer,
		sessions:   sessions,
		userStore:  userStore,
		siteName:   siteName,
		require2FA: require2FA,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	callback := safeCallback(r.URL.Query().Get(middleware.CallbackParam))

	// Already signed in: skip the form.
	if middleware.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, callback, http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{"CallbackURL": callback},
	})
}

// LoginSubmit checks the credentials and opens a session. Users with TOTP
// enabled continue to the code prompt before the session is usable.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	callback := safeCallback(r.FormValue(middleware.CallbackParam))

	loginError := func(msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Sign In",
			Data: map[string]any{
				"Error":       msg,
				"Email":       email,
				"CallbackURL": callback,
			},
		})
	}

	if email == "" || password == "" {
		loginError("Email and password are required.")
		return
	}

	ctx := r.Context()
	user, err := a.userStore.Authenticate(ctx, email, password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		slog.Info("login failed", "email", email, "remote", r.RemoteAddr)
		loginError("Invalid email or password.")
		return
	}
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		loginError("An unexpected error occurred.")
		return
	}

	next := user.NextFactor(a.require2FA)
	_, err = a.sessions.Create(ctx, w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TOTPEnabled: user.TOTPEnabled,
		TwoFADone:   next == models.SecondFactorNone,
		Callback:    callback,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	switch next {
	case models.SecondFactorVerify:
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
	case models.SecondFactorEnroll:
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
	default:
		a.recordLogin(ctx, user)
		http.Redirect(w, r, callback, http.StatusSeeOther)
	}
}

// recordLogin stamps a completed sign-in. Failure only costs the timestamp.
func (a *Auth) recordLogin(ctx context.Context, user *models.User) {
	if err := a.userStore.RecordLogin(ctx, user.ID); err != nil {
		slog.Warn("record login failed", "user", user.Email, "error", err)
	}
	slog.Info("login", "user", user.Email)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if sess.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.siteName,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.setupPage(w, r, key, "")
}

// TwoFASetupSubmit confirms enrollment with a first valid code.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	a.checkCode(w, r, true)
}

// TwoFAVerifyPage renders the code prompt for users with TOTP enabled.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes sign-in.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	a.checkCode(w, r, false)
}

// checkCode validates the submitted code against the stored secret. A
// first valid code during setup enables TOTP for the account.
func (a *Auth) checkCode(w http.ResponseWriter, r *http.Request, setup bool) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	user, err := a.userStore.FindByID(ctx, sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, *user.TOTPSecret) {
		const msg = "Invalid code. Please try again."
		if setup && !user.TOTPEnabled {
			key, err := otp.NewKeyFromURL(totpURL(a.siteName, user.Email, *user.TOTPSecret))
			if err != nil {
				slog.Error("rebuild totp key failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			a.setupPage(w, r, key, msg)
			return
		}
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": msg},
		})
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(ctx, user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		slog.Info("totp enabled", "user", user.Email)
	}

	callback := safeCallback(sess.Callback)
	sess.TOTPEnabled = true
	sess.TwoFADone = true
	sess.Callback = ""
	if err := a.sessions.Rotate(ctx, w, r, sess); err != nil {
		slog.Error("session rotate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.recordLogin(ctx, user)

	http.Redirect(w, r, callback, http.StatusSeeOther)
}

// setupPage renders the enrollment page for key.
func (a *Auth) setupPage(w http.ResponseWriter, r *http.Request, key *otp.Key, errMsg string) {
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"QRCode": template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		"Secret": key.Secret(),
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data:  data,
	})
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// totpURL builds the otpauth URL of an existing secret.
func totpURL(issuer, account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	return (&url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}).String()
}

// safeCallback returns target when it is a local admin path worth
// returning to after sign-in, and adminHome otherwise.
func safeCallback(target string) string {
	if !strings.HasPrefix(target, adminHome) {
		return adminHome
	}
	if strings.HasPrefix(target, middleware.LoginPath) || strings.HasPrefix(target, "/admin/2fa") {
		return adminHome
	}
	if len(target) > len(adminHome) && target[len(adminHome)] != '/' && target[len(adminHome)] != '?' {
		return adminHome
	}
	return target
}
