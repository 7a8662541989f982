package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"

	"dominicanews/internal/cache"
	"dominicanews/internal/respond"
)

// Version is reported by the health check. Set at build time with
// -ldflags "-X dominicanews/internal/handlers.Version=...".
var Version = "dev"

// probeTimeout bounds each dependency check of the health endpoints.
const probeTimeout = 2 * time.Second

// System serves the health probes and the admin cache controls.
type System struct {
	db      *sql.DB
	valkey  *redis.Client
	cache   *cache.TTL
	env     string
	started time.Time
}

// NewSystem creates a new System handler group. valkey may be nil.
func NewSystem(db *sql.DB, valkey *redis.Client, c *cache.TTL, env string) *System {
	return &System{
		db:      db,
		valkey:  valkey,
		cache:   c,
		env:     env,
		started: time.Now(),
	}
}

type dependencyStatus struct {
	Status      string `json:"status"`
	Operational bool   `json:"operational"`
}

// Health reports process and dependency state. It answers 503 when the
// database does not respond to a ping.
func (h *System) Health(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	body := map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(h.started).Seconds(),
		"environment": h.env,
		"version":     Version,
		"memory": map[string]uint64{
			"used":  mem.HeapAlloc >> 20,
			"total": mem.HeapSys >> 20,
		},
	}

	dbStatus := h.probe(r.Context(), h.db.PingContext)
	body["database"] = dbStatus
	if h.valkey != nil {
		body["valkey"] = h.probe(r.Context(), func(ctx context.Context) error {
			return h.valkey.Ping(ctx).Err()
		})
	}

	if !dbStatus.Operational {
		body["status"] = "error"
		body["message"] = "Database not operational"
		respond.JSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respond.JSON(w, http.StatusOK, body)
}

// Ready reports whether the service can take traffic.
func (h *System) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.probe(r.Context(), h.db.PingContext).Operational {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "not ready",
			"message": "Database not ready",
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Live reports that the process is running.
func (h *System) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Seconds(),
	})
}

// CacheStats returns the response cache counters.
func (h *System) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "", map[string]any{"cache": h.cache.Stats()})
}

// CacheClear drops cached responses matching ?pattern=, or all of them.
func (h *System) CacheClear(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	n := h.cache.Invalidate(pattern)
	slog.Info("cache cleared", "pattern", pattern, "removed", n)

	msg := "Cache cleared"
	if pattern != "" {
		msg = "Cache entries matching pattern cleared"
	}
	writeOK(w, msg, map[string]any{"removed": n, "pattern": pattern})
}

func (h *System) probe(ctx context.Context, ping func(context.Context) error) dependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := ping(ctx); err != nil {
		slog.Warn("health probe failed", "error", err)
		return dependencyStatus{Status: "disconnected"}
	}
	return dependencyStatus{Status: "connected", Operational: true}
}
