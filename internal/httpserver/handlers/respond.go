package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// currentCatalog returns the served catalog, or answers 503 and returns nil.
func currentCatalog(w http.ResponseWriter, d deps.Deps) *domain.Catalog {
	cat := d.Index.Current()
	if cat == nil {
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded yet")
		return nil
	}
	return cat
}

// versionETag tags responses derived from one catalog version.
func versionETag(cat *domain.Catalog, suffix string) string {
	return `"` + cat.Version.String() + suffix + `"`
}

// notModified sets the ETag and reports whether the client already has it.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// NotFound answers unknown routes with a JSON error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
}
