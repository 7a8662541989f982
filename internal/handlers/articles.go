// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/auth"
	"dominicanews/internal/cache"
	"dominicanews/internal/content"
	"dominicanews/internal/markdown"
	"dominicanews/internal/middleware"
	"dominicanews/internal/models"
	"dominicanews/internal/store"
)

const articleCachePattern = "article:"

// Articles serves the public article pages and the admin article CRUD.
type Articles struct {
	articles   *store.ArticleStore
	categories *store.CategoryStore
	cache      *cache.TTL
	dev        bool
	now        func() time.Time
}

// NewArticles creates a new Articles handler group.
func NewArticles(articles *store.ArticleStore, categories *store.CategoryStore, c *cache.TTL, dev bool) *Articles {
	return &Articles{
		articles:   articles,
		categories: categories,
		cache:      c,
		dev:        dev,
		now:        time.Now,
	}
}

// articlePage is the body of every article listing.
type articlePage struct {
	Category   *models.Category  `json:"category,omitempty"`
	Articles   []models.Article  `json:"articles"`
	Pagination models.Pagination `json:"pagination"`
}

// List returns published articles, newest first, optionally restricted
// to the category named by ?category=<slug>.
func (h *Articles) List(w http.ResponseWriter, r *http.Request) {
	filter := models.ArticleFilter{Status: models.StatusPublished, PublishedOrder: true}

	if s := r.URL.Query().Get("category"); s != "" {
		c, err := h.categoryBySlug(r.Context(), s)
		if err != nil {
			fail(w, err, h.dev)
			return
		}
		filter.CategoryID = &c.ID
	}

	page, err := h.page(r, filter)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", page)
}

// ByCategory returns the published articles of the category in the
// {slug} URL parameter together with the category itself.
func (h *Articles) ByCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	page, err := h.page(r, models.ArticleFilter{
		Status:         models.StatusPublished,
		CategoryID:     &c.ID,
		PublishedOrder: true,
	})
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	page.Category = c
	writeOK(w, "", page)
}

// Get returns a published article by slug with its body rendered to HTML.
func (h *Articles) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.publishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	html, err := markdown.ToHTML(a.Content)
	if err != nil {
		slog.Warn("article render failed", "slug", a.Slug, "error", err)
	}
	a.ContentHTML = html

	writeOK(w, "", map[string]any{"article": a})
}

// Related returns other published articles of the same category.
func (h *Articles) Related(w http.ResponseWriter, r *http.Request) {
	a, err := h.publishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	limit := min(intQuery(r, "limit", defaultRelatedLimit), maxRelatedLimit)
	items, _, err := h.articles.List(r.Context(), models.ArticleFilter{
		Status:         models.StatusPublished,
		CategoryID:     &a.CategoryID,
		ExcludeID:      &a.ID,
		PublishedOrder: true,
	}, limit, 0)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", map[string]any{"articles": items, "count": len(items)})
}

// AdminList returns articles in any status, most recently updated first,
// filtered by ?status= and ?category=<slug>.
func (h *Articles) AdminList(w http.ResponseWriter, r *http.Request) {
	filter := models.ArticleFilter{WithContent: true}

	if s := models.ArticleStatus(r.URL.Query().Get("status")); s.Valid() {
		filter.Status = s
	}
	if s := r.URL.Query().Get("category"); s != "" {
		c, err := h.categoryBySlug(r.Context(), s)
		if err != nil {
			fail(w, err, h.dev)
			return
		}
		filter.CategoryID = &c.ID
	}

	page, err := h.page(r, filter)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", page)
}

// AdminGet returns a single article in any status.
func (h *Articles) AdminGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.byID(r)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", map[string]any{"article": a})
}

// Create stores a new article authored by the caller.
func (h *Articles) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if err := auth.Authorize(id, models.RoleAdmin); err != nil {
		fail(w, err, h.dev)
		return
	}

	var in content.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, h.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(true); err != nil {
		fail(w, err, h.dev)
		return
	}

	c, err := content.RequireCategory(r.Context(), h.categories.FindByID, uuid.MustParse(*in.CategoryID))
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	a := &models.Article{
		Title:         *in.Title,
		Excerpt:       emptyToNil(in.Excerpt),
		Content:       *in.Content,
		FeaturedImage: emptyToNil(in.FeaturedImage),
		CategoryID:    c.ID,
		AuthorID:      id.UserID,
	}
	status := models.StatusDraft
	if in.Status != nil {
		status = *in.Status
	}
	content.ApplyStatusRules(a, "", status, h.now())

	if a.Slug, err = h.uniqueSlug(r.Context(), a.Title, nil); err != nil {
		fail(w, err, h.dev)
		return
	}

	created, err := h.articles.Create(r.Context(), a)
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	h.invalidate()
	writeCreated(w, "Article created successfully", map[string]any{"article": created})
}

// Update applies the supplied fields. A new title regenerates the slug
// and status changes move publishedAt as ApplyStatusRules describes.
func (h *Articles) Update(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathID(r, "article")
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	var in content.ArticleInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, h.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(false); err != nil {
		fail(w, err, h.dev)
		return
	}

	a, err := h.articles.FindByID(r.Context(), articleID)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if a == nil {
		fail(w, apperr.NotFound("Article not found"), h.dev)
		return
	}

	if in.CategoryID != nil {
		c, err := content.RequireCategory(r.Context(), h.categories.FindByID, uuid.MustParse(*in.CategoryID))
		if err != nil {
			fail(w, err, h.dev)
			return
		}
		a.CategoryID = c.ID
	}
	if in.Title != nil && *in.Title != a.Title {
		if a.Slug, err = h.uniqueSlug(r.Context(), *in.Title, &a.ID); err != nil {
			fail(w, err, h.dev)
			return
		}
		a.Title = *in.Title
	}
	if in.Excerpt != nil {
		a.Excerpt = emptyToNil(in.Excerpt)
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.FeaturedImage != nil {
		a.FeaturedImage = emptyToNil(in.FeaturedImage)
	}

	next := a.Status
	if in.Status != nil {
		next = *in.Status
	}
	content.ApplyStatusRules(a, a.Status, next, h.now())

	updated, err := h.articles.Update(r.Context(), a)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if updated == nil {
		fail(w, apperr.NotFound("Article not found"), h.dev)
		return
	}

	h.invalidate()
	writeOK(w, "Article updated successfully", map[string]any{"article": updated})
}

// Delete removes an article.
func (h *Articles) Delete(w http.ResponseWriter, r *http.Request) {
	articleID, err := pathID(r, "article")
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	deleted, err := h.articles.Delete(r.Context(), articleID)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if !deleted {
		fail(w, apperr.NotFound("Article not found"), h.dev)
		return
	}

	h.invalidate()
	writeOK(w, "Article deleted successfully", nil)
}

// page loads one page of filter using the ?page and ?limit parameters.
func (h *Articles) page(r *http.Request, filter models.ArticleFilter) (*articlePage, error) {
	page, limit := pageParams(r, defaultPageLimit, maxPageLimit)
	p := models.NewPagination("totalArticles", page, limit, 0)

	items, total, err := h.articles.List(r.Context(), filter, limit, p.Offset())
	if err != nil {
		return nil, err
	}
	return &articlePage{
		Articles:   items,
		Pagination: models.NewPagination("totalArticles", page, limit, total),
	}, nil
}

func (h *Articles) categoryBySlug(ctx context.Context, s string) (*models.Category, error) {
	c, err := h.categories.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	return c, nil
}

func (h *Articles) publishedBySlug(ctx context.Context, s string) (*models.Article, error) {
	a, err := h.articles.FindPublishedBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("Article not found")
	}
	return a, nil
}

func (h *Articles) byID(r *http.Request) (*models.Article, error) {
	id, err := pathID(r, "article")
	if err != nil {
		return nil, err
	}
	a, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("Article not found")
	}
	return a, nil
}

func (h *Articles) uniqueSlug(ctx context.Context, title string, self *uuid.UUID) (string, error) {
	return uniqueSlug(ctx, title, func(ctx context.Context, candidate string) (bool, error) {
		return h.articles.SlugExists(ctx, candidate, self)
	})
}

// invalidate drops the cached article pages and every public listing.
func (h *Articles) invalidate() {
	n := h.cache.Invalidate(articleCachePattern)
	n += h.cache.Invalidate(publicCachePattern)
	slog.Debug("cache invalidated", "reason", "article change", "removed", n)
}
