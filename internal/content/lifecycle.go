// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content holds the write-time rules for articles and categories:
// input validation, sanitization and the publication lifecycle. Nothing in
// here touches the database; lookups are passed in as functions.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/models"
)

// ApplyStatusRules moves a to the next status and keeps PublishedAt
// consistent with it:
//
//   - draft -> published: PublishedAt is set to now unless already set.
//   - published -> published: PublishedAt is left alone.
//   - any -> draft: PublishedAt is cleared, even if it held a real date.
func ApplyStatusRules(a *models.Article, previous, next models.ArticleStatus, now time.Time) {
	a.Status = next

	switch next {
	case models.StatusDraft:
		a.PublishedAt = nil
	case models.StatusPublished:
		if previous == models.StatusPublished {
			return
		}
		if a.PublishedAt == nil {
			t := now
			a.PublishedAt = &t
		}
	}
}

// CategoryLookup fetches a category by ID, returning nil, nil when absent.
type CategoryLookup func(ctx context.Context, id uuid.UUID) (*models.Category, error)

// RequireCategory resolves a category reference. A missing category is a
// NotFound failure, not a validation one.
func RequireCategory(ctx context.Context, lookup CategoryLookup, id uuid.UUID) (*models.Category, error) {
	c, err := lookup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	return c, nil
}
