// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"place_enricher/internal/app"
	"place_enricher/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Handlers struct{ Q *app.QueryService }

// problem is an RFC 7807 error body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", healthz)
	s.mux.Route("/v1/places", func(r chi.Router) {
		r.Get("/", h.listPlaces)
		r.Get("/{id}", h.getPlace)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write problem response failed")
	}
}

// writeJSON marshals v once, derives a weak ETag from the bytes and answers
// 304 when the client's If-None-Match already holds it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("marshal response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`

	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("write body failed")
	}
}

func (h *Handlers) getPlace(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "place id is required")
		return
	}

	pv, err := h.Q.GetPlace(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "place "+id+" has not been enriched")
	case err != nil:
		log.Error().Err(err).Str("place_id", id).Msg("get place failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	default:
		writeJSON(w, r, pv)
	}
}

// parseListQuery reads ?sheet= and ?limit= (1..200, default 50).
func parseListQuery(r *http.Request) (domain.PlacesQuery, error) {
	q := domain.PlacesQuery{Limit: defaultLimit}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxLimit {
			return q, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
		}
		q.Limit = l
	}
	if s := strings.TrimSpace(r.URL.Query().Get("sheet")); s != "" {
		q.Sheet = &s
	}
	return q, nil
}

func (h *Handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	page, err := h.Q.ListPlaces(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list places failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeJSON(w, r, page)
}
