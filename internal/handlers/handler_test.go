// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"dominicanews/internal/auth"
	"dominicanews/internal/cache"
	"dominicanews/internal/database"
	"dominicanews/internal/middleware"
	"dominicanews/internal/models"
	"dominicanews/internal/session"
	"dominicanews/internal/storage"
	"dominicanews/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "dominicanews")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "dominicanews")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Valkey client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "user-sessions:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Cache      *cache.TTL
	Tokens     *auth.Tokens
	Sessions   *session.Store
	Users      *store.UserStore
	Categories *store.CategoryStore
	Articles   *store.ArticleStore
	Images     *store.ImageStore
	Files      *storage.Disk
	Router     http.Handler
}

// newTestEnv wires every handler group into a chi router shaped like the
// production one. vk may be nil for stateless tokens.
func newTestEnv(t *testing.T, vk *redis.Client) *testEnv {
	t.Helper()

	db := testDB(t)
	files, err := storage.NewDisk(t.TempDir(), models.ThumbnailDir)
	if err != nil {
		t.Fatalf("storage.NewDisk: %v", err)
	}

	env := &testEnv{
		DB:         db,
		Cache:      cache.NewTTL(time.Minute),
		Tokens:     auth.NewTokens("handler-test-secret", time.Hour),
		Sessions:   session.NewStore(vk),
		Users:      store.NewUserStore(db),
		Categories: store.NewCategoryStore(db),
		Articles:   store.NewArticleStore(db),
		Images:     store.NewImageStore(db),
		Files:      files,
	}

	authH := NewAuth(env.Users, env.Tokens, env.Sessions, true)
	categoriesH := NewCategories(env.Categories, env.Cache, true)
	articlesH := NewArticles(env.Articles, env.Categories, env.Cache, true)
	imagesH := NewImages(env.Images, env.Files, env.Cache, 5<<20, true)
	systemH := NewSystem(db, vk, env.Cache, "testing")
	authn := middleware.NewAuthenticator(env.Tokens, env.Users, env.Sessions, false)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemH.Health)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)
			r.Get("/auth/me", authH.Me)
			r.Post("/auth/logout", authH.Logout)
			r.Post("/auth/2fa/setup", authH.TwoFASetup)
			r.Post("/auth/2fa/enable", authH.TwoFAEnable)
			r.Post("/auth/2fa/disable", authH.TwoFADisable)
		})

		r.Get("/categories", categoriesH.List)
		r.Get("/categories/{slug}", categoriesH.Get)
		r.Get("/categories/{slug}/articles", articlesH.ByCategory)
		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware, middleware.RequireAdmin)
			r.Post("/categories", categoriesH.Create)
			r.Put("/categories/{id}", categoriesH.Update)
			r.Delete("/categories/{id}", categoriesH.Delete)
		})

		r.Get("/articles", articlesH.List)
		r.Get("/articles/category/{slug}", articlesH.ByCategory)
		r.Get("/articles/{slug}", articlesH.Get)
		r.Get("/articles/{slug}/related", articlesH.Related)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.Middleware, middleware.RequireAdmin)
			r.Get("/articles", articlesH.AdminList)
			r.Get("/articles/{id}", articlesH.AdminGet)
			r.Post("/articles", articlesH.Create)
			r.Put("/articles/{id}", articlesH.Update)
			r.Delete("/articles/{id}", articlesH.Delete)
			r.Post("/images/upload", imagesH.Upload)
			r.Get("/images", imagesH.List)
			r.Get("/images/{id}", imagesH.Get)
			r.Delete("/images/{id}", imagesH.Delete)
		})

		r.Get("/images/{filename}", imagesH.Serve)
		r.Get("/images/thumbnails/{filename}", imagesH.ServeThumbnail)
	})
	env.Router = r

	return env
}

// createUser inserts an account and deletes it, with everything it owns,
// when the test ends.
func (e *testEnv) createUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	email := fmt.Sprintf("handler-%s@handler-test.local", uuid.NewString()[:8])
	user, err := store.NewUserStore(e.DB).Create(context.Background(), email, "Password1", "Handler Tester", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		e.DB.Exec("DELETE FROM articles WHERE author_id = $1", user.ID)
		e.DB.Exec("DELETE FROM images WHERE uploaded_by = $1", user.ID)
		e.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})

	token, claims, err := e.Tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := e.Sessions.Create(context.Background(), claims.ID, &session.Data{UserID: user.ID, Email: email, Role: role}, time.Hour); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return user, token
}

// createCategory inserts a category removed after the test.
func (e *testEnv) createCategory(t *testing.T) *models.Category {
	t.Helper()
	suffix := uuid.NewString()[:8]
	c, err := e.Categories.Create(context.Background(), &models.Category{
		Name: "Handler Section " + suffix,
		Slug: "handler-section-" + suffix,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		e.DB.Exec("DELETE FROM articles WHERE category_id = $1", c.ID)
		e.DB.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	})
	return c
}

// cleanUserByEmail removes an account created through the API.
func (e *testEnv) cleanUserByEmail(t *testing.T, email string) {
	t.Cleanup(func() { e.DB.Exec("DELETE FROM users WHERE email = $1", email) })
}

// do sends a JSON request through the router. body may be nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors respond.Envelope with a raw data field.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

// decodeEnvelope parses the response body and, when out is non-nil, its
// data field.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

// expectStatus fails the test when the response code differs.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}
