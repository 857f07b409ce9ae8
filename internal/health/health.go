// Package health provides HTTP liveness and readiness probes.
//
//   - /healthz — liveness; a process that can serve HTTP is alive.
//   - /readyz  — readiness; 200 only when every registered check passes.
//
// Responses are JSON with a top-level "status" ("ok" or "fail") and a
// per-check breakdown. Checkers for the bot's concrete dependencies (the
// database pool and the artifact directory) are provided alongside.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Check probes one dependency. It must respect context cancellation and
// return nil when the dependency is healthy.
type Check func(ctx context.Context) error

// Handler serves the probe endpoints. The check set is fixed at construction
// time; Handler is safe for concurrent use.
type Handler struct {
	checks map[string]Check
	order  []string
}

// New creates an empty Handler. Add checks with [Handler.AddCheck].
func New() *Handler {
	return &Handler{checks: make(map[string]Check)}
}

// AddCheck registers a named readiness check. Call before serving; not safe
// to call concurrently with requests.
func (h *Handler) AddCheck(name string, check Check) *Handler {
	if _, ok := h.checks[name]; !ok {
		h.order = append(h.order, name)
	}
	h.checks[name] = check
	return h
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// probeResult is the JSON response body.
type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz always reports 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeResult{Status: "ok"})
}

// Readyz runs every registered check in registration order, each under a
// [checkTimeout] deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := probeResult{
		Status: "ok",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK

	for _, name := range h.order {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			res.Checks[name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		} else {
			res.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, res)
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a check that pings the database.
func Database(db Pinger) Check {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return nil
	}
}

// DirWritable returns a check that verifies dir accepts writes, since the
// synthesis client persists artifacts there.
func DirWritable(dir string) Check {
	return func(_ context.Context) error {
		f, err := os.CreateTemp(dir, ".readyz-*")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		name := f.Name()
		err = errors.Join(f.Close(), os.Remove(name))
		if err != nil {
			return fmt.Errorf("clean up %s: %w", filepath.Base(name), err)
		}
		return nil
	}
}

// writeJSON encodes v as JSON with the given status code. On encoding
// failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
