package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/cache"
	"dominicanews/internal/content"
	"dominicanews/internal/models"
	"dominicanews/internal/store"
)

// Cache key patterns dropped when categories change.
const (
	categoryCachePattern = "category:"
	publicCachePattern   = "GET:"
)

// Categories handles the category listing and its admin CRUD.
type Categories struct {
	categories *store.CategoryStore
	cache      *cache.TTL
	dev        bool
}

// NewCategories creates a new Categories handler group.
func NewCategories(categories *store.CategoryStore, c *cache.TTL, dev bool) *Categories {
	return &Categories{categories: categories, cache: c, dev: dev}
}

// List returns every category in display order.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", map[string]any{"categories": items, "count": len(items)})
}

// Get returns a single category by slug.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if c == nil {
		fail(w, apperr.NotFound("Category not found"), h.dev)
		return
	}
	writeOK(w, "", map[string]any{"category": c})
}

// Create adds a category with a slug derived from its name.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in content.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, h.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(true); err != nil {
		fail(w, err, h.dev)
		return
	}

	c := &models.Category{Name: *in.Name, Description: emptyToNil(in.Description)}
	if in.DisplayOrder != nil {
		c.DisplayOrder = *in.DisplayOrder
	}

	var err error
	if c.Slug, err = h.uniqueSlug(r.Context(), c.Name, nil); err != nil {
		fail(w, err, h.dev)
		return
	}

	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	h.invalidate()
	writeCreated(w, "Category created successfully", map[string]any{"category": created})
}

// Update applies the supplied fields. Renaming regenerates the slug.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category")
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	var in content.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, err, h.dev)
		return
	}
	in.Normalize()
	if err := in.Validate(false); err != nil {
		fail(w, err, h.dev)
		return
	}

	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if c == nil {
		fail(w, apperr.NotFound("Category not found"), h.dev)
		return
	}

	if in.Name != nil && *in.Name != c.Name {
		if c.Slug, err = h.uniqueSlug(r.Context(), *in.Name, &c.ID); err != nil {
			fail(w, err, h.dev)
			return
		}
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = emptyToNil(in.Description)
	}
	if in.DisplayOrder != nil {
		c.DisplayOrder = *in.DisplayOrder
	}

	updated, err := h.categories.Update(r.Context(), c)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if updated == nil {
		fail(w, apperr.NotFound("Category not found"), h.dev)
		return
	}

	h.invalidate()
	writeOK(w, "Category updated successfully", map[string]any{"category": updated})
}

// Delete removes a category that no article references.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category")
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	n, err := h.categories.CountArticles(r.Context(), id)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if n > 0 {
		fail(w, apperr.Conflict("Cannot delete category with existing articles"), h.dev)
		return
	}

	deleted, err := h.categories.Delete(r.Context(), id)
	if apperr.Is(err, apperr.KindConflict) {
		// An article was filed under it after the count.
		err = apperr.Conflict("Cannot delete category with existing articles")
	}
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if !deleted {
		fail(w, apperr.NotFound("Category not found"), h.dev)
		return
	}

	h.invalidate()
	writeOK(w, "Category deleted successfully", nil)
}

func (h *Categories) uniqueSlug(ctx context.Context, name string, self *uuid.UUID) (string, error) {
	return uniqueSlug(ctx, name, func(ctx context.Context, candidate string) (bool, error) {
		return h.categories.SlugExists(ctx, candidate, self)
	})
}

// invalidate drops cached category lookups and every public listing,
// since listed articles embed their category.
func (h *Categories) invalidate() {
	n := h.cache.Invalidate(categoryCachePattern)
	n += h.cache.Invalidate(publicCachePattern)
	slog.Debug("cache invalidated", "reason", "category change", "removed", n)
}

// emptyToNil clears optional text fields sent as "".
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
