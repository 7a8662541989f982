// Package storage keeps uploaded image files. Keys are slash-separated
// relative paths such as "image-1700000000000-123456789.jpg" or
// "thumbnails/thumb-image-1700000000000-123456789.jpg".
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Open when no object exists for the key.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey is returned for keys that could escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Object is an opened stored file. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Backend is where uploaded files live.
type Backend interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// validKey rejects empty keys, absolute paths, backslashes and any ".."
// segment.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

var (
	_ Backend = (*Disk)(nil)
	_ Backend = (*S3)(nil)
)
