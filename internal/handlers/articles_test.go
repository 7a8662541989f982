// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dominicanews/internal/models"
)

type articleData struct {
	Article struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Slug        string     `json:"slug"`
		Content     string     `json:"content"`
		ContentHTML string     `json:"contentHtml"`
		Status      string     `json:"status"`
		PublishedAt *time.Time `json:"publishedAt"`
		Category    *struct {
			Slug string `json:"slug"`
		} `json:"category"`
		Author *struct {
			FullName string `json:"fullName"`
		} `json:"author"`
	} `json:"article"`
}

type listData struct {
	Category *struct {
		Slug string `json:"slug"`
	} `json:"category"`
	Articles []struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	} `json:"articles"`
	Pagination map[string]any `json:"pagination"`
}

var articleBody = "## Rainfall\n\nHeavy rain is expected across **Roseau** and the west coast tonight."

func TestArticleLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.createUser(t, models.RoleAdmin)
	c := env.createCategory(t)

	title := "Storm watch " + uuid.NewString()[:8]
	rec := env.do(t, http.MethodPost, "/api/admin/articles", map[string]any{
		"title":      title,
		"content":    articleBody,
		"categoryId": c.ID.String(),
	}, admin)
	expectStatus(t, rec, http.StatusCreated)

	var draft articleData
	decodeEnvelope(t, rec, &draft)
	a := draft.Article
	if a.Status != "draft" || a.PublishedAt != nil {
		t.Errorf("new article should be an unpublished draft: %+v", a)
	}
	if a.Slug != strings.ToLower(strings.ReplaceAll(title, " ", "-")) {
		t.Errorf("slug: got %q", a.Slug)
	}

	t.Run("draft hidden from public", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/articles/"+a.Slug, nil, "")
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("admin sees draft", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/articles/"+a.ID, nil, admin)
		expectStatus(t, rec, http.StatusOK)
		rec = env.do(t, http.MethodGet, "/api/admin/articles?status=draft&category="+c.Slug, nil, admin)
		expectStatus(t, rec, http.StatusOK)
		var got listData
		decodeEnvelope(t, rec, &got)
		if len(got.Articles) != 1 || got.Articles[0].ID != a.ID {
			t.Errorf("admin list: got %+v", got.Articles)
		}
	})

	t.Run("same title gets suffix", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/articles", map[string]any{
			"title":      title,
			"content":    articleBody,
			"categoryId": c.ID.String(),
		}, admin)
		expectStatus(t, rec, http.StatusCreated)
		var dup articleData
		decodeEnvelope(t, rec, &dup)
		if dup.Article.Slug != a.Slug+"-1" {
			t.Errorf("slug: got %q, want %q", dup.Article.Slug, a.Slug+"-1")
		}
	})

	env.Cache.Set("GET:/api/articles", []byte("stale"), time.Minute)
	env.Cache.Set("article:"+a.Slug, []byte("stale"), time.Minute)

	rec = env.do(t, http.MethodPut, "/api/admin/articles/"+a.ID, map[string]any{"status": "published"}, admin)
	expectStatus(t, rec, http.StatusOK)
	var published articleData
	decodeEnvelope(t, rec, &published)
	if published.Article.PublishedAt == nil {
		t.Fatal("publishing should stamp publishedAt")
	}
	if published.Article.Slug != a.Slug {
		t.Errorf("slug should not change without a new title: %q", published.Article.Slug)
	}
	for _, key := range []string{"GET:/api/articles", "article:" + a.Slug} {
		if _, ok := env.Cache.Get(key); ok {
			t.Errorf("cache entry %q survived an article write", key)
		}
	}

	t.Run("republish keeps timestamp", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/admin/articles/"+a.ID, map[string]any{
			"status":  "published",
			"excerpt": "Rain across the island",
		}, admin)
		expectStatus(t, rec, http.StatusOK)
		var got articleData
		decodeEnvelope(t, rec, &got)
		if got.Article.PublishedAt == nil || !got.Article.PublishedAt.Equal(*published.Article.PublishedAt) {
			t.Errorf("publishedAt changed: %v -> %v", published.Article.PublishedAt, got.Article.PublishedAt)
		}
	})

	t.Run("public get renders markdown", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/articles/"+a.Slug, nil, "")
		expectStatus(t, rec, http.StatusOK)
		var got articleData
		decodeEnvelope(t, rec, &got)
		if !strings.Contains(got.Article.ContentHTML, "<strong>Roseau</strong>") {
			t.Errorf("contentHtml: %q", got.Article.ContentHTML)
		}
		if got.Article.Category == nil || got.Article.Category.Slug != c.Slug {
			t.Errorf("category: %+v", got.Article.Category)
		}
		if got.Article.Author == nil || got.Article.Author.FullName == "" {
			t.Errorf("author: %+v", got.Article.Author)
		}
	})

	t.Run("public listing by category", func(t *testing.T) {
		for _, path := range []string{
			"/api/articles?category=" + c.Slug,
			"/api/articles/category/" + c.Slug,
			"/api/categories/" + c.Slug + "/articles",
		} {
			rec := env.do(t, http.MethodGet, path, nil, "")
			expectStatus(t, rec, http.StatusOK)
			var got listData
			decodeEnvelope(t, rec, &got)
			if len(got.Articles) != 1 || got.Articles[0].Slug != a.Slug {
				t.Errorf("%s: got %+v", path, got.Articles)
			}
			if got.Pagination["totalArticles"] != float64(1) {
				t.Errorf("%s: pagination %v", path, got.Pagination)
			}
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/articles/category/none-"+uuid.NewString()[:8], nil, "")
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("retitle changes slug", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/admin/articles/"+a.ID, map[string]any{
			"title": "Flood warning " + uuid.NewString()[:8],
		}, admin)
		expectStatus(t, rec, http.StatusOK)
		var got articleData
		decodeEnvelope(t, rec, &got)
		if !strings.HasPrefix(got.Article.Slug, "flood-warning-") {
			t.Errorf("slug: got %q", got.Article.Slug)
		}
	})

	t.Run("unpublish clears timestamp", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/admin/articles/"+a.ID, map[string]any{"status": "draft"}, admin)
		expectStatus(t, rec, http.StatusOK)
		var got articleData
		decodeEnvelope(t, rec, &got)
		if got.Article.PublishedAt != nil {
			t.Errorf("publishedAt should be cleared, got %v", got.Article.PublishedAt)
		}
	})

	rec = env.do(t, http.MethodDelete, "/api/admin/articles/"+a.ID, nil, admin)
	expectStatus(t, rec, http.StatusOK)
	rec = env.do(t, http.MethodGet, "/api/admin/articles/"+a.ID, nil, admin)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestArticleCreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.createUser(t, models.RoleAdmin)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing fields", map[string]any{}, http.StatusBadRequest},
		{"short content", map[string]any{"title": "Short body", "content": "tiny", "categoryId": uuid.NewString()}, http.StatusBadRequest},
		{"bad status", map[string]any{"title": "Bad status", "content": articleBody, "categoryId": uuid.NewString(), "status": "archived"}, http.StatusBadRequest},
		{"unknown category", map[string]any{"title": "No section", "content": articleBody, "categoryId": uuid.NewString()}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/admin/articles", tt.body, admin)
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestRelatedArticles(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.createUser(t, models.RoleAdmin)
	c := env.createCategory(t)

	var slugs []string
	for range 3 {
		rec := env.do(t, http.MethodPost, "/api/admin/articles", map[string]any{
			"title":      "Cricket report " + uuid.NewString()[:8],
			"content":    articleBody,
			"categoryId": c.ID.String(),
			"status":     "published",
		}, admin)
		expectStatus(t, rec, http.StatusCreated)
		var got articleData
		decodeEnvelope(t, rec, &got)
		slugs = append(slugs, got.Article.Slug)
	}

	rec := env.do(t, http.MethodGet, "/api/articles/"+slugs[0]+"/related?limit=1", nil, "")
	expectStatus(t, rec, http.StatusOK)
	var got struct {
		Articles []struct {
			Slug string `json:"slug"`
		} `json:"articles"`
		Count int `json:"count"`
	}
	decodeEnvelope(t, rec, &got)
	if got.Count != 1 || len(got.Articles) != 1 {
		t.Fatalf("related: got %+v", got)
	}
	if got.Articles[0].Slug == slugs[0] {
		t.Error("related list must not include the article itself")
	}

	rec = env.do(t, http.MethodGet, "/api/articles/missing-"+uuid.NewString()[:8]+"/related", nil, "")
	expectStatus(t, rec, http.StatusNotFound)
}
