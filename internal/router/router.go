// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Dominica News API. Routes are organized into public, authenticated and
// admin groups, each with its own rate limit and cache rules.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dominicanews/internal/apperr"
	"dominicanews/internal/cache"
	"dominicanews/internal/handlers"
	"dominicanews/internal/middleware"
	"dominicanews/internal/respond"
)

// Cache lifetimes per resource.
const (
	publicTTL   = 5 * time.Minute
	articleTTL  = 10 * time.Minute
	categoryTTL = 15 * time.Minute
	imageTTL    = time.Hour
)

// Limits for the stricter route groups.
const (
	authLimit   = 5
	authWindow  = 15 * time.Minute
	adminLimit  = 30
	adminWindow = time.Minute
)

// Handlers bundles the handler groups served by the router.
type Handlers struct {
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Articles   *handlers.Articles
	Images     *handlers.Images
	System     *handlers.System
}

// Options carries the request policy taken from configuration.
type Options struct {
	// FrontendURL is the only origin allowed by CORS.
	FrontendURL string
	// RateLimit and RateWindow bound requests per client IP across the API.
	RateLimit  int
	RateWindow time.Duration
	Dev        bool
}

// Router is the configured HTTP handler. Stop releases the rate limiter
// goroutines.
type Router struct {
	chi.Router
	limiters []*middleware.RateLimiter
}

// Stop halts the background cleanup of every rate limiter.
func (rt *Router) Stop() {
	for _, l := range rt.limiters {
		l.Stop()
	}
}

// New creates the router with every route and middleware wired up.
func New(h Handlers, authn *middleware.Authenticator, c *cache.TTL, opts Options) *Router {
	global := middleware.NewRateLimiter(opts.RateLimit, opts.RateWindow,
		middleware.WithSkipPaths("/api/health", "/api/ready", "/api/live"),
	)
	authLimiter := middleware.NewRateLimiter(authLimit, authWindow,
		middleware.CountFailuresOnly(),
		middleware.WithMessage("Too many authentication attempts, please try again later."),
	)
	adminLimiter := middleware.NewRateLimiter(adminLimit, adminWindow,
		middleware.WithMessage("Too many admin requests, please slow down."),
	)

	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(global.Middleware)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, apperr.NotFound("Not found - "+req.URL.RequestURI()), opts.Dev)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{Error: "Method not allowed"})
	})

	public := middleware.Cache(c, publicTTL, middleware.PublicCacheKey)
	byParam := func(prefix, param string, ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.Cache(c, ttl, func(req *http.Request) string {
			return prefix + chi.URLParam(req, param)
		})
	}

	r.Route("/api", func(r chi.Router) {
		// Probes: no auth, no cache.
		r.Get("/health", h.System.Health)
		r.Get("/ready", h.System.Ready)
		r.Get("/live", h.System.Live)

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/register", h.Auth.Register)
			r.With(authLimiter.Middleware).Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(authn.Middleware)
				r.Get("/me", h.Auth.Me)
				r.Post("/logout", h.Auth.Logout)
				r.Post("/2fa/setup", h.Auth.TwoFASetup)
				r.Post("/2fa/enable", h.Auth.TwoFAEnable)
				r.Post("/2fa/disable", h.Auth.TwoFADisable)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.Cache(c, categoryTTL, func(req *http.Request) string {
				return "category:" + req.URL.RequestURI()
			})).Get("/", h.Categories.List)
			r.With(byParam("category:", "slug", categoryTTL)).Get("/{slug}", h.Categories.Get)
			r.With(public).Get("/{slug}/articles", h.Articles.ByCategory)

			r.Group(func(r chi.Router) {
				r.Use(authn.Middleware, middleware.RequireAdmin)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/articles", func(r chi.Router) {
			r.With(public).Get("/", h.Articles.List)
			r.With(public).Get("/category/{slug}", h.Articles.ByCategory)
			r.With(byParam("article:", "slug", articleTTL)).Get("/{slug}", h.Articles.Get)
			r.With(public).Get("/{slug}/related", h.Articles.Related)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminLimiter.Middleware)
			r.Use(authn.Middleware)
			r.Use(middleware.RequireAdmin)

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", h.Articles.AdminList)
				r.Post("/", h.Articles.Create)
				r.Get("/{id}", h.Articles.AdminGet)
				r.Put("/{id}", h.Articles.Update)
				r.Delete("/{id}", h.Articles.Delete)
			})

			r.Route("/images", func(r chi.Router) {
				r.Get("/", h.Images.List)
				r.Post("/upload", h.Images.Upload)
				r.Get("/{id}", h.Images.Get)
				r.Delete("/{id}", h.Images.Delete)
			})

			r.Get("/cache/stats", h.System.CacheStats)
			r.Delete("/cache", h.System.CacheClear)
		})

		r.Route("/images", func(r chi.Router) {
			r.With(byParam("image:", "filename", imageTTL)).Get("/{filename}", h.Images.Serve)
			r.With(byParam("image:thumbnails/", "filename", imageTTL)).Get("/thumbnails/{filename}", h.Images.ServeThumbnail)
		})
	})

	return &Router{Router: r, limiters: []*middleware.RateLimiter{global, authLimiter, adminLimiter}}
}
