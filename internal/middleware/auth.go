// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/auth"
	"dominicanews/internal/models"
	"dominicanews/internal/respond"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// identityKey is the context key for the authenticated caller.
	identityKey contextKey = "identity"
	// claimsKey is the context key for the verified token claims.
	claimsKey contextKey = "claims"
)

// UserFinder loads the account behind a token.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionChecker reports whether a token's session is still live.
type SessionChecker interface {
	Active(ctx context.Context, id string) (bool, error)
}

// Authenticator verifies bearer tokens and attaches the caller's identity
// to the request context.
type Authenticator struct {
	tokens   *auth.Tokens
	users    UserFinder
	sessions SessionChecker
	dev      bool
}

// NewAuthenticator creates an Authenticator. sessions may be nil, in which
// case every valid signature is accepted until the token expires. With dev
// set, failures include error details in the response.
func NewAuthenticator(tokens *auth.Tokens, users UserFinder, sessions SessionChecker, dev bool) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, sessions: sessions, dev: dev}
}

// Middleware rejects requests without a valid bearer token with 401.
// The user is re-read on every request so role changes apply at once.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respond.Error(w, apperr.Unauthorized("Access token is required"), a.dev)
			return
		}

		claims, err := a.tokens.Verify(raw)
		if err != nil {
			respond.Error(w, apperr.Unauthorized("Invalid or expired token"), a.dev)
			return
		}

		if a.sessions != nil {
			active, err := a.sessions.Active(r.Context(), claims.ID)
			if err != nil {
				respond.Error(w, fmt.Errorf("check session: %w", err), a.dev)
				return
			}
			if !active {
				respond.Error(w, apperr.Unauthorized("Session has been revoked"), a.dev)
				return
			}
		}

		user, err := a.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			respond.Error(w, fmt.Errorf("load token user: %w", err), a.dev)
			return
		}
		if user == nil {
			respond.Error(w, apperr.Unauthorized("User not found"), a.dev)
			return
		}

		id := &auth.Identity{
			UserID:    user.ID,
			Email:     user.Email,
			FullName:  user.FullName,
			Role:      user.Role,
			SessionID: claims.ID,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id, claims)))
	})
}

// RequireRoles returns 401 without an identity and 403 when the identity
// holds none of roles. Must be applied after Authenticator.Middleware.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Authorize(IdentityFromCtx(r.Context()), roles...); err != nil {
				respond.Error(w, err, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRoles(models.RoleAdmin).
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(models.RoleAdmin)(next)
}

// WithIdentity returns a copy of ctx carrying id and claims.
func WithIdentity(ctx context.Context, id *auth.Identity, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, claimsKey, claims)
}

// IdentityFromCtx extracts the authenticated caller from the request
// context. Returns nil if the request was not authenticated.
func IdentityFromCtx(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}

// ClaimsFromCtx extracts the verified token claims.
func ClaimsFromCtx(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

// bearerToken returns the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
