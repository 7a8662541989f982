// Package handlers implements the HTTP handlers of the Dominica News API.
// Every handler answers with the JSON envelope from the respond package.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/models"
	"dominicanews/internal/respond"
	"dominicanews/internal/slug"
)

const (
	// defaultPageLimit is the article page size when ?limit is absent.
	defaultPageLimit = 10
	// defaultImageLimit is the image library page size.
	defaultImageLimit = 20
	// maxPageLimit caps ?limit on every listing.
	maxPageLimit = 50

	defaultRelatedLimit = 5
	maxRelatedLimit     = 10

	// maxJSONBody bounds request bodies outside of image upload.
	maxJSONBody = 1 << 20
)

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("Request body too large")
		}
		return apperr.BadRequest("Invalid JSON body")
	}
	return nil
}

// intQuery parses a positive integer query parameter. Missing, malformed
// and non-positive values yield fallback.
func intQuery(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// pageParams returns the requested page clamped to models.MaxPage and a
// limit clamped to maxLimit.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	return min(intQuery(r, "page", 1), models.MaxPage), min(intQuery(r, "limit", defaultLimit), maxLimit)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("Invalid " + entity + " ID")
	}
	return id, nil
}

func fail(w http.ResponseWriter, err error, dev bool) {
	respond.Error(w, err, dev)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	respond.OK(w, http.StatusOK, message, data)
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	respond.OK(w, http.StatusCreated, message, data)
}

// uniqueSlug derives a slug from text that exists does not report as taken.
func uniqueSlug(ctx context.Context, text string, exists slug.ExistsFunc) (string, error) {
	s, err := slug.EnsureUnique(ctx, slug.Normalize(text), exists)
	if errors.Is(err, slug.ErrExhausted) {
		return "", apperr.Conflict("slug already exists")
	}
	return s, err
}
