// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"dominicanews/internal/apperr"
	"dominicanews/internal/auth"
	"dominicanews/internal/content"
	"dominicanews/internal/middleware"
	"dominicanews/internal/models"
	"dominicanews/internal/session"
	"dominicanews/internal/store"
)

// totpIssuer is the account label shown in authenticator apps.
const totpIssuer = "Dominica News"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	users    *store.UserStore
	tokens   *auth.Tokens
	sessions *session.Store
	dev      bool
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, tokens *auth.Tokens, sessions *session.Store, dev bool) *Auth {
	return &Auth{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		dev:      dev,
	}
}

// authResult is the body of a successful register or login.
type authResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and signs it in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in content.Registration
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, a.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		fail(w, err, a.dev)
		return
	}

	existing, err := a.users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	if existing != nil {
		fail(w, apperr.Conflict("User with this email already exists"), a.dev)
		return
	}

	user, err := a.users.Create(r.Context(), in.Email, in.Password, in.FullName, models.RoleAdmin)
	if apperr.Is(err, apperr.KindConflict) {
		// Lost a race with a concurrent sign-up.
		err = apperr.Conflict("User with this email already exists")
	}
	if err != nil {
		fail(w, err, a.dev)
		return
	}

	token, err := a.startSession(r, user)
	if err != nil {
		fail(w, err, a.dev)
		return
	}

	audit(r, "USER_REGISTER", user)
	writeCreated(w, "User registered successfully", authResult{User: user, Token: token})
}

// Login verifies credentials and, for accounts with two-factor
// authentication, the current TOTP code.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in content.Login
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, a.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		fail(w, err, a.dev)
		return
	}

	user, err := a.users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	if user == nil || !a.users.CheckPassword(user, in.Password) {
		fail(w, apperr.Unauthorized("Invalid credentials"), a.dev)
		return
	}

	if user.Requires2FA() {
		if in.TOTPCode == "" {
			fail(w, apperr.Unauthorized("Two-factor code required"), a.dev)
			return
		}
		if !totp.Validate(in.TOTPCode, *user.TOTPSecret) {
			fail(w, apperr.Unauthorized("Invalid two-factor code"), a.dev)
			return
		}
	}

	token, err := a.startSession(r, user)
	if err != nil {
		fail(w, err, a.dev)
		return
	}

	audit(r, "USER_LOGIN", user)
	writeOK(w, "Login successful", authResult{User: user, Token: token})
}

// Me returns the authenticated user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	writeOK(w, "", map[string]any{"user": user})
}

// Logout revokes the session of the presented token. Without Valkey the
// token stays valid until it expires and the client simply discards it.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.IdentityFromCtx(r.Context()); id != nil {
		if err := a.sessions.Destroy(r.Context(), id.SessionID); err != nil {
			fail(w, err, a.dev)
			return
		}
		slog.Info("audit", "action", "USER_LOGOUT", "user_id", id.UserID, "ip", r.RemoteAddr)
	}
	writeOK(w, "Logout successful", nil)
}

// TwoFASetup generates a new TOTP secret and returns it with a QR code.
// The secret is stored but not enforced until TwoFAEnable confirms it.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	if user.TOTPEnabled {
		fail(w, apperr.Conflict("Two-factor authentication is already enabled"), a.dev)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		fail(w, fmt.Errorf("generate totp key: %w", err), a.dev)
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		fail(w, err, a.dev)
		return
	}

	// QR code as base64-encoded PNG.
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		fail(w, fmt.Errorf("encode qr code: %w", err), a.dev)
		return
	}

	writeOK(w, "Scan the QR code with your authenticator app, then confirm with a code", map[string]any{
		"secret":     key.Secret(),
		"otpauthUrl": key.URL(),
		"qrCode":     "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// twoFACode is the body of the enable and disable requests.
type twoFACode struct {
	Code string `json:"code"`
}

// TwoFAEnable confirms the pending secret with a valid code. Every other
// session of the user is revoked.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	user, code, err := a.twoFARequest(w, r)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	if user.TOTPEnabled {
		fail(w, apperr.Conflict("Two-factor authentication is already enabled"), a.dev)
		return
	}
	if user.TOTPSecret == nil {
		fail(w, apperr.BadRequest("Two-factor setup has not been started"), a.dev)
		return
	}
	if !totp.Validate(code, *user.TOTPSecret) {
		fail(w, apperr.BadRequest("Invalid two-factor code"), a.dev)
		return
	}

	if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
		fail(w, err, a.dev)
		return
	}
	a.revokeOthers(r, user)

	audit(r, "2FA_ENABLE", user)
	writeOK(w, "Two-factor authentication enabled", nil)
}

// TwoFADisable turns two-factor authentication off after checking a
// current code. Every other session of the user is revoked.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	user, code, err := a.twoFARequest(w, r)
	if err != nil {
		fail(w, err, a.dev)
		return
	}
	if !user.Requires2FA() {
		fail(w, apperr.BadRequest("Two-factor authentication is not enabled"), a.dev)
		return
	}
	if !totp.Validate(code, *user.TOTPSecret) {
		fail(w, apperr.BadRequest("Invalid two-factor code"), a.dev)
		return
	}

	if err := a.users.ResetTOTP(r.Context(), user.ID); err != nil {
		fail(w, err, a.dev)
		return
	}
	a.revokeOthers(r, user)

	audit(r, "2FA_DISABLE", user)
	writeOK(w, "Two-factor authentication disabled", nil)
}

// startSession issues a token for user and records its session.
func (a *Auth) startSession(r *http.Request, user *models.User) (string, error) {
	token, claims, err := a.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	err = a.sessions.Create(r.Context(), claims.ID, &session.Data{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, a.tokens.TTL())
	if err != nil {
		return "", err
	}
	return token, nil
}

// currentUser loads the account of the authenticated caller.
func (a *Auth) currentUser(r *http.Request) (*models.User, error) {
	id := middleware.IdentityFromCtx(r.Context())
	if err := auth.Authorize(id); err != nil {
		return nil, err
	}
	user, err := a.users.FindByID(r.Context(), id.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

func (a *Auth) twoFARequest(w http.ResponseWriter, r *http.Request) (*models.User, string, error) {
	var in twoFACode
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, "", err
	}
	if in.Code == "" {
		return nil, "", apperr.Validation([]apperr.FieldError{{Field: "code", Message: "Two-factor code is required"}})
	}
	user, err := a.currentUser(r)
	if err != nil {
		return nil, "", err
	}
	return user, in.Code, nil
}

// revokeOthers ends every session of user except the current one. A
// failure is logged; the 2FA change itself already succeeded.
func (a *Auth) revokeOthers(r *http.Request, user *models.User) {
	keep := ""
	if id := middleware.IdentityFromCtx(r.Context()); id != nil {
		keep = id.SessionID
	}
	n, err := a.sessions.DestroyUser(r.Context(), user.ID, keep)
	if err != nil {
		slog.Warn("revoke sessions failed", "user_id", user.ID, "error", err)
		return
	}
	if n > 0 {
		slog.Info("sessions revoked", "user_id", user.ID, "count", n)
	}
}

// audit records a security-relevant account action.
func audit(r *http.Request, action string, user *models.User) {
	slog.Info("audit",
		"action", action,
		"user_id", user.ID,
		"email", user.Email,
		"ip", r.RemoteAddr,
	)
}
