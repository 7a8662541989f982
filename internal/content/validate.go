// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/models"
	"dominicanews/internal/slug"
)

// Validation limits for articles, categories and accounts.
const (
	minTitleLen       = 5
	maxTitleLen       = 500
	minContentLen     = 50
	maxExcerptLen     = 500
	minCategoryLen    = 2
	maxCategoryLen    = 100
	maxDescriptionLen = 500
	minPasswordLen    = 8
	maxPasswordLen    = 72 // bytes; bcrypt rejects longer input
	minFullNameLen    = 2
	maxFullNameLen    = 100
)

var (
	categoryNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s&-]+$`)
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	fullNamePattern     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// ArticleInput is the writable part of an article. A nil field was not
// supplied: create requires title, content and categoryId, update applies
// only the fields present.
type ArticleInput struct {
	Title         *string               `json:"title"`
	Excerpt       *string               `json:"excerpt"`
	Content       *string               `json:"content"`
	FeaturedImage *string               `json:"featuredImage"`
	CategoryID    *string               `json:"categoryId"`
	Status        *models.ArticleStatus `json:"status"`
}

// Normalize trims and sanitizes the supplied fields in place.
func (in *ArticleInput) Normalize() {
	sanitizePtr(in.Title)
	sanitizePtr(in.Excerpt)
	sanitizePtr(in.Content)
	trimPtr(in.Title)
	trimPtr(in.Excerpt)
	trimPtr(in.FeaturedImage)
	trimPtr(in.CategoryID)
}

// Validate checks the supplied fields. On create the required fields must
// be present. The returned error is nil or a validation *apperr.Error.
func (in *ArticleInput) Validate(create bool) error {
	var errs fieldErrors

	if in.Title == nil {
		errs.requireIf(create, "title", "Title is required")
	} else {
		n := utf8.RuneCountInString(*in.Title)
		if n < minTitleLen || n > maxTitleLen {
			errs.add("title", "Title must be between 5 and 500 characters")
		} else if !slug.Valid(slug.Normalize(*in.Title)) {
			errs.add("title", "Title must contain at least one letter or digit")
		}
	}

	if in.Content == nil {
		errs.requireIf(create, "content", "Content is required")
	} else if utf8.RuneCountInString(strings.TrimSpace(*in.Content)) < minContentLen {
		errs.add("content", "Content must be at least 50 characters long")
	}

	if in.Excerpt != nil && utf8.RuneCountInString(*in.Excerpt) > maxExcerptLen {
		errs.add("excerpt", "Excerpt must not exceed 500 characters")
	}

	if in.FeaturedImage != nil && *in.FeaturedImage != "" && !isHTTPURL(*in.FeaturedImage) {
		errs.add("featuredImage", "Featured image must be a valid URL")
	}

	if in.CategoryID == nil {
		errs.requireIf(create, "categoryId", "Category is required")
	} else if _, err := uuid.Parse(*in.CategoryID); err != nil {
		errs.add("categoryId", "Invalid category ID")
	}

	if in.Status != nil && !in.Status.Valid() {
		errs.add("status", "Status must be either draft or published")
	}

	return errs.err()
}

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"displayOrder"`
}

// Normalize trims and sanitizes the supplied fields in place.
func (in *CategoryInput) Normalize() {
	sanitizePtr(in.Description)
	trimPtr(in.Name)
	trimPtr(in.Description)
}

// Validate checks the supplied fields; name is required on create.
func (in *CategoryInput) Validate(create bool) error {
	var errs fieldErrors

	if in.Name == nil {
		errs.requireIf(create, "name", "Category name is required")
	} else {
		n := utf8.RuneCountInString(*in.Name)
		switch {
		case n < minCategoryLen || n > maxCategoryLen:
			errs.add("name", "Category name must be between 2 and 100 characters")
		case !categoryNamePattern.MatchString(*in.Name):
			errs.add("name", "Category name can only contain letters, numbers, spaces, hyphens, and ampersands")
		case !slug.Valid(slug.Normalize(*in.Name)):
			errs.add("name", "Category name must contain at least one letter or digit")
		}
	}

	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxDescriptionLen {
		errs.add("description", "Description must not exceed 500 characters")
	}

	if in.DisplayOrder != nil && *in.DisplayOrder < 0 {
		errs.add("displayOrder", "Display order must be a non-negative integer")
	}

	return errs.err()
}

// Registration is the sign-up request body.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Normalize lowercases the email and trims the name.
func (r *Registration) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// Validate checks email format, password strength and name shape.
func (r *Registration) Validate() error {
	var errs fieldErrors

	if !emailPattern.MatchString(r.Email) {
		errs.add("email", "Please provide a valid email address")
	}

	switch {
	case utf8.RuneCountInString(r.Password) < minPasswordLen:
		errs.add("password", "Password must be at least 8 characters long")
	case len(r.Password) > maxPasswordLen:
		errs.add("password", "Password must not exceed 72 bytes")
	case !strongPassword(r.Password):
		errs.add("password", "Password must contain at least one lowercase letter, one uppercase letter, and one number")
	}

	n := utf8.RuneCountInString(r.FullName)
	switch {
	case n < minFullNameLen || n > maxFullNameLen:
		errs.add("fullName", "Full name must be between 2 and 100 characters")
	case !fullNamePattern.MatchString(r.FullName):
		errs.add("fullName", "Full name can only contain letters and spaces")
	}

	return errs.err()
}

// Login is the sign-in request body. TOTPCode is only required for
// accounts with two-factor authentication enabled.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

// Normalize lowercases the email.
func (l *Login) Normalize() {
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.TOTPCode = strings.TrimSpace(l.TOTPCode)
}

// Validate checks that email and password are present.
func (l *Login) Validate() error {
	var errs fieldErrors
	if !emailPattern.MatchString(l.Email) {
		errs.add("email", "Please provide a valid email address")
	}
	if l.Password == "" {
		errs.add("password", "Password is required")
	}
	return errs.err()
}

// fieldErrors accumulates failed rules in field order.
type fieldErrors []apperr.FieldError

func (e *fieldErrors) add(field, msg string) {
	*e = append(*e, apperr.FieldError{Field: field, Message: msg})
}

func (e *fieldErrors) requireIf(required bool, field, msg string) {
	if required {
		e.add(field, msg)
	}
}

func (e fieldErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return apperr.Validation(e)
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

func isHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func strongPassword(p string) bool {
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
