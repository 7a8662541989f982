// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus represents the publishing state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s ArticleStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Article is a news story. CategoryID and AuthorID are the stored foreign
// keys; Category and Author carry the joined summaries returned to clients.
type Article struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	Content       string        `json:"content,omitempty"`
	ContentHTML   string        `json:"contentHtml,omitempty"`
	FeaturedImage *string       `json:"featuredImage,omitempty"`
	CategoryID    uuid.UUID     `json:"-"`
	AuthorID      uuid.UUID     `json:"-"`
	Category      *CategoryRef  `json:"category,omitempty"`
	Author        *AuthorRef    `json:"author,omitempty"`
	Status        ArticleStatus `json:"status"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsPublished returns true if the article is in published status.
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// AuthorRef is the public summary of an article's author or an image's
// uploader.
type AuthorRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
}

// ArticleFilter narrows article listings. Zero values mean "no filter".
type ArticleFilter struct {
	Status     ArticleStatus
	CategoryID *uuid.UUID
	// ExcludeID drops a single article, used for related-article lookups.
	ExcludeID *uuid.UUID
	// PublishedOrder sorts by publication date instead of last update.
	PublishedOrder bool
	// WithContent includes the full body; list views leave it out.
	WithContent bool
}
