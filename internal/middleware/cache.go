package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"dominicanews/internal/cache"
)

// CacheKeyFunc derives the cache key of a request.
type CacheKeyFunc func(r *http.Request) string

// PublicCacheKey keys a response by method and full request URI.
func PublicCacheKey(r *http.Request) string {
	return r.Method + ":" + r.URL.RequestURI()
}

// Cache serves GET responses from c for ttl. Requests carrying an
// Authorization header bypass the cache in both directions. Only 200
// responses are stored, together with their Content-Type and
// Cache-Control headers.
//
// Responses carry X-Cache (HIT or MISS) and X-Cache-TTL in seconds.
func Cache(c *cache.TTL, ttl time.Duration, key CacheKeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = PublicCacheKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			k := key(r)
			if payload, left, ok := c.Lookup(k); ok {
				contentType, cacheControl, body := splitCached(payload)
				h := w.Header()
				h.Set("Content-Type", contentType)
				if cacheControl != "" {
					h.Set("Cache-Control", cacheControl)
				}
				h.Set("X-Cache", "HIT")
				h.Set("X-Cache-TTL", strconv.Itoa(int(left/time.Second)))
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			}

			cw := &cachingWriter{ResponseWriter: w, ttl: ttl}
			next.ServeHTTP(cw, r)
			if cw.status == http.StatusOK {
				h := w.Header()
				c.Set(k, joinCached(h.Get("Content-Type"), h.Get("Cache-Control"), cw.body.Bytes()), ttl)
			}
		})
	}
}

// cachingWriter tees a 200 response body into a buffer and marks it as a
// cache miss before the headers go out.
type cachingWriter struct {
	http.ResponseWriter
	ttl    time.Duration
	status int
	body   bytes.Buffer
}

func (cw *cachingWriter) WriteHeader(code int) {
	if cw.status == 0 {
		cw.status = code
		if code == http.StatusOK {
			cw.Header().Set("X-Cache", "MISS")
			cw.Header().Set("X-Cache-TTL", strconv.Itoa(int(cw.ttl/time.Second)))
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cachingWriter) Write(b []byte) (int, error) {
	if cw.status == 0 {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.status == http.StatusOK {
		cw.body.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// joinCached stores the content type and cache control on the first two
// lines of the payload.
func joinCached(contentType, cacheControl string, body []byte) []byte {
	out := make([]byte, 0, len(contentType)+len(cacheControl)+2+len(body))
	out = append(out, contentType...)
	out = append(out, '\n')
	out = append(out, cacheControl...)
	out = append(out, '\n')
	return append(out, body...)
}

func splitCached(payload []byte) (contentType, cacheControl string, body []byte) {
	parts := bytes.SplitN(payload, []byte{'\n'}, 3)
	if len(parts) != 3 {
		return "application/octet-stream", "", payload
	}
	return string(parts[0]), string(parts[1]), parts[2]
}
