// Package handlers provides the HTTP handlers of the search API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/aria-lang/cuba-go/internal/alignment"
	"github.com/aria-lang/cuba-go/internal/config"
	"github.com/aria-lang/cuba-go/internal/search"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

// Handlers serves requests against one loaded engine. Request fields left
// out fall back to the configured defaults.
type Handlers struct {
	engine *cuba.Engine
	conf   *config.Conf
	log    log.FieldLogger
}

// New returns handlers for engine.
func New(engine *cuba.Engine, conf *config.Conf, logger log.FieldLogger) *Handlers {
	if conf == nil {
		conf = config.Default()
	}
	return &Handlers{engine: engine, conf: conf, log: logger}
}

// Routes mounts the API on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/index", h.IndexInfo)
		r.Post("/search", h.Search)
		r.Post("/search/batch", h.SearchBatch)
		r.Post("/align", h.Align)
	})
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// IndexInfo describes the loaded index.
func (h *Handlers) IndexInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Info())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps err onto a status code.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	var (
		serr *search.ConfigError
		aerr *alignment.ConfigError
	)
	switch {
	case errors.As(err, &serr), errors.As(err, &aerr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cuba.ErrNoSequences):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
