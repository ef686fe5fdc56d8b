package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/emit"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
)

// Catalog serves the decoded JSON view of the current catalog.
func Catalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := currentCatalog(w, d)
		if cat == nil || notModified(w, r, versionETag(cat, "-json")) {
			return
		}
		writeJSON(w, http.StatusOK, emit.NewCatalogView(cat))
	}
}

// CatalogBinary serves the packed table consumed by firmware builds.
func CatalogBinary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := currentCatalog(w, d)
		if cat == nil || notModified(w, r, versionETag(cat, "-bin")) {
			return
		}

		data, err := emit.Binary(cat)
		if err != nil {
			d.Logger.Error("binary encoding failed", logger.String("version", cat.Version.String()), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "binary encoding failed")
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+emit.BinaryName+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

// Providers serves the provider dictionary in index order.
func Providers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := currentCatalog(w, d)
		if cat == nil || notModified(w, r, versionETag(cat, "-providers")) {
			return
		}
		writeJSON(w, http.StatusOK, emit.Providers(cat))
	}
}

// Service serves one compiled service by id.
func Service(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := currentCatalog(w, d)
		if cat == nil {
			return
		}

		id := chi.URLParam(r, "id")
		svc, ok := cat.Service(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("service %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, emit.NewServiceView(cat, svc))
	}
}

type coverageResponse struct {
	Lat      float64            `json:"lat"`
	Lon      float64            `json:"lon"`
	Version  string             `json:"version"`
	Services []emit.ServiceView `json:"services"`
}

// Coverage lists the services covering ?lat=&lon=, nearest first.
func Coverage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := parseCoord(r, "lat", 90)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lon, err := parseCoord(r, "lon", 180)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		cat := currentCatalog(w, d)
		if cat == nil {
			return
		}

		matches := index.Covering(cat, lat, lon)
		resp := coverageResponse{
			Lat:      lat,
			Lon:      lon,
			Version:  cat.Version.String(),
			Services: make([]emit.ServiceView, len(matches)),
		}
		for i, m := range matches {
			v := emit.NewServiceView(cat, m.Service)
			dist := m.DistanceKm
			v.DistanceKm = &dist
			resp.Services[i] = v
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseCoord(r *http.Request, name string, limit float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter: %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s out of range [-%v, %v]: %v", name, limit, limit, v)
	}
	return v, nil
}

// Report serves the outcome of the last compilation attempt: warnings on
// success, every failing (record, error) pair otherwise.
func Report(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Reports == nil {
			writeError(w, http.StatusNotFound, "no compiler running")
			return
		}
		rep := d.Reports.LastReport()
		if rep == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, rep)
	}
}

type searchResponse struct {
	Query    string             `json:"query"`
	Version  string             `json:"version"`
	Services []emit.ServiceView `json:"services"`
}

// Search ranks services against ?q= on id, provider and hostname.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, http.StatusBadRequest, "missing query parameter: q")
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw))
				return
			}
			limit = n
		}

		cat := currentCatalog(w, d)
		if cat == nil {
			return
		}

		hits := index.Search(cat, q, limit)
		resp := searchResponse{
			Query:    q,
			Version:  cat.Version.String(),
			Services: make([]emit.ServiceView, len(hits)),
		}
		for i, h := range hits {
			resp.Services[i] = emit.NewServiceView(cat, h.Service)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
