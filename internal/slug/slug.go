// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns article titles and category names into URL-safe
// identifiers and resolves collisions against existing ones.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxAttempts bounds EnsureUnique so a predicate that never reports a free
// candidate cannot spin forever.
const maxAttempts = 10_000

var (
	// disallowed matches anything outside the slug alphabet.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// valid is the shape every non-empty normalized slug has.
	valid = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ErrExhausted is returned by EnsureUnique when no free candidate was
// found within maxAttempts.
var ErrExhausted = errors.New("slug: no free candidate")

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Normalize creates a URL-friendly slug from the given string.
// Example: "COVID-19 Updates & Analysis!" → "covid-19-updates-analysis"
//
// Letters outside a-z are dropped rather than transliterated, so
// "Café Noël" becomes "caf-nol".
func Normalize(s string) string {
	result := strings.ToLower(s)
	result = strings.Join(strings.Fields(result), "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Valid reports whether s is a well-formed, non-empty slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}

// EnsureUnique returns base if it is free, otherwise the first free
// candidate of base-1, base-2, ... tried in order. exists is called once
// per candidate. An empty base is not special-cased.
func EnsureUnique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for n := 1; n <= maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
	return "", fmt.Errorf("%w for %q after %d attempts", ErrExhausted, base, maxAttempts)
}
